package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"

	"github.com/illegalcall/esgtracker/internal/jobs"
	"github.com/illegalcall/esgtracker/internal/models"
)

// BenchmarkConsumeClaim measures dispatch throughput of a claim holding b.N
// events, excluding the handlers' own work.
func BenchmarkConsumeClaim(b *testing.B) {
	b.ReportAllocs()

	handlers := map[models.EventType]jobs.JobHandlerFunc{
		models.EventReportGenerated: func(ctx context.Context, payload []byte) (jobs.Result, error) {
			return jobs.Result{}, nil
		},
	}
	w := NewWorker(testConfig(), handlers, new(MockConsumerGroup))

	value, err := json.Marshal(models.Event{Type: models.EventReportGenerated, UserID: "user-1", ReportID: "r1"})
	if err != nil {
		b.Fatal(err)
	}

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, b.N)}
	for i := 0; i < b.N; i++ {
		claim.messages <- &sarama.ConsumerMessage{Value: value, Offset: int64(i)}
	}
	close(claim.messages)
	session := &fakeSession{ctx: context.Background()}

	b.ResetTimer()
	if err := w.ConsumeClaim(session, claim); err != nil {
		b.Fatal(err)
	}
	b.StopTimer()

	if len(session.marked) != b.N {
		b.Fatalf("marked %d of %d messages", len(session.marked), b.N)
	}
}
