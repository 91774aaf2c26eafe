// Package shed is a record store over a partitioned remote table that can
// cull its heaviest prime-weighted record.
//
// # Quick Start
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	st := dynamo.New(dynamodb.NewFromConfig(cfg), "records")
//	s := shed.New(st, shed.WithLogger(shed.NewTextLogger(slog.LevelInfo)))
//
//	rec, err := s.InsertRandom(ctx, 42)
//	n, err := s.Count(ctx)
//	out, err := s.Cull(ctx) // removes the heaviest record with a prime weight
//
// # Consistency
//
// Insert and removal are conditional writes at the backend: an insert of a
// present id fails with store.ErrDuplicateKey and a removal of an absent id
// fails with store.ErrNotFound. Nothing is locked client-side. Count and the
// fetch behind Cull are parallel scans and are not linearizable with
// concurrent writes.
//
// # Errors
//
// Classify maps any returned error to the class a transport should report:
//
//	switch shed.Classify(err) {
//	case shed.ClassInvalidInput: // 400
//	case shed.ClassNotFound:     // 404
//	case shed.ClassServer:       // 500
//	}
//
// # Events
//
// Every committed insert and removal is published to the configured
// events.Publisher. Publishing is best effort: a failure is logged and counted
// but never fails the write, which has already happened.
package shed
