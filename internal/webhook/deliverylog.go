package webhook

import (
	"context"
	"fmt"
	"log"

	"timetrack-backend/internal/store"
)

// DBRecorder writes delivery audit rows to _webhook_deliveries. Purely
// observational: a failed insert is logged and ignored, and nothing
// reads these rows to drive retries.
type DBRecorder struct {
	store *store.Store
}

func NewDBRecorder(s *store.Store) *DBRecorder {
	return &DBRecorder{store: s}
}

func (r *DBRecorder) RecordDelivery(ctx context.Context, d Delivery) {
	var status any
	if d.StatusCode > 0 {
		status = d.StatusCode
	}

	pb := r.store.Dialect.NewParamBuilder()
	_, err := store.Exec(ctx, r.store.DB,
		fmt.Sprintf(`INSERT INTO _webhook_deliveries (id, event, action, url, request_body, signature, response_status, response_body, error)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)`,
			pb.Add(store.GenerateUUID()), pb.Add(d.Event), pb.Add(d.Action), pb.Add(d.URL),
			pb.Add(string(d.Body)), pb.Add(d.Signature), pb.Add(status), pb.Add(d.ResponseBody), pb.Add(d.Err)),
		pb.Params()...)
	if err != nil {
		log.Printf("[Webhook] ERROR: record delivery: %v", err)
	}
}
