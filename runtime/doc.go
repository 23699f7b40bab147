// Package runtime provides the high-level API for running offload guests.
//
// A Runtime owns one resource table, one wazero engine, and the
// host-allocator binding between them. Guests loaded through the runtime
// import the offload interface and drive the shared table.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.LoadGuest(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	if err := inst.Run(ctx, "run"); err != nil {
//	    log.Fatal(err)
//	}
//
// The table outlives guest instances: buffers a guest leaks stay live
// until freed or until the runtime is closed, which is visible through
// Runtime.Table().
package runtime
