// Package core provides the computation pipeline for geocalc.
//
// The package sits between the transports (HTTP handlers, the CLI) and the
// pure geometry in package geometry. It owns everything that happens to a
// request after its inputs are collected: reading files, limiting
// concurrency, resolving the height, formatting results and mapping errors
// to the one status line a user sees.
//
// # Service
//
// [Service] is the entry point. Each operation is independent and holds no
// state between calls:
//
//   - [Service.ComputeArea]: one file, polygon area in m² and km²
//   - [Service.ComputeVolume]: two files read concurrently, frustum volume
//     and suggested grid spacing
//   - [Service.ComputeWeight]: volume times density, in tons
//   - [Service.ComputeGrid]: grid spacing for a volume on its own
//
// # Reading Files
//
// Inputs are [Source] values so the same pipeline serves uploads and local
// paths. [ReadAsync] parses one source on its own goroutine and returns a
// [Future]; [ReadPair] joins two reads and fails as a whole if either does.
//
//	bottom, top, err := core.ReadPair(ctx, core.FileSource("a.csv"), core.FileSource("b.csv"),
//	    pointcsv.NamedParser{}, maxSize)
//
// File computations take a slot from a [Limiter] first. When every slot is
// busy for longer than the configured wait, the call fails with [ErrBusy].
//
// # Errors
//
// Operations return typed errors: [InputMissingError] for absent inputs,
// [ValidationError] for unusable values and [ReadError] for a file that
// could not be read or parsed. [UserText] renders any of them as the status
// line; [MapError] adds a support code and a suggested action.
package core
