package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/graftdb/graft"
)

type metricsListener string

// NewListener returns a transaction event listener counting commit
// attempts and their outcomes under the given database name.
func NewListener(dbName string) graft.TransactionEventListener {
	return metricsListener(dbName)
}

var numberOfWriteTransactionsVec = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "graft_number_of_write_transactions_total",
	Help: "Total number of write transactions that reached their commit point",
}, []string{
	"dbname",
})

var numberOfCommittedTransactionsVec = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "graft_number_of_write_transactions_committed",
	Help: "Number of write transactions that committed",
}, []string{
	"dbname",
})

var numberOfRolledBackTransactionsVec = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "graft_number_of_write_transactions_rolled_back",
	Help: "Number of write transactions that were rolled back after reaching their commit point",
}, []string{
	"dbname",
})

func init() {
	prometheus.MustRegister(
		numberOfWriteTransactionsVec,
		numberOfCommittedTransactionsVec,
		numberOfRolledBackTransactionsVec,
	)
}

func (l metricsListener) BeforeCommit(data graft.TransactionData, db graft.Database) (any, error) {
	cnt, err := numberOfWriteTransactionsVec.GetMetricWithLabelValues(string(l))
	if err != nil {
		return nil, fmt.Errorf("while getting metric counter: %w", err)
	}

	cnt.Inc()
	return nil, nil
}

func (l metricsListener) AfterCommit(data graft.TransactionData, state any, db graft.Database) error {
	cnt, err := numberOfCommittedTransactionsVec.GetMetricWithLabelValues(string(l))
	if err != nil {
		return fmt.Errorf("while getting metric counter: %w", err)
	}

	cnt.Inc()
	return nil
}

func (l metricsListener) AfterRollback(data graft.TransactionData, state any, db graft.Database) error {
	cnt, err := numberOfRolledBackTransactionsVec.GetMetricWithLabelValues(string(l))
	if err != nil {
		return fmt.Errorf("while getting metric counter: %w", err)
	}

	cnt.Inc()
	return nil
}
