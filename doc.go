// Package fks implements static two-level perfect hashing (Fredman, Komlós
// and Szemerédi) for a fixed set of string keys.
//
// A Table answers membership in O(1) worst case with no collisions at query
// time. Construction is randomized: a top-level MAD hash spreads n keys over
// about n buckets, and every bucket holding two or more keys gets a secondary
// table of size about k^2 whose hash function is redrawn ("rebooted") until
// its keys are collision-free.
//
// # Basic Usage
//
// Building a table:
//
//	t, err := fks.New(words, fks.WithSeed(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(t.Contains("cat"))
//
// Construction fails with errors.ErrConstructionFailed if a secondary table exhausts
// its attempts (see WithMaxAttempts); retrying with another seed is the
// remedy. The table is static: there is no insert or delete.
//
// Persisting and reloading a table without redoing the randomized search:
//
//	if err := t.WriteFile("words.fks"); err != nil {
//	    log.Fatal(err)
//	}
//	t2, err := fks.Open("words.fks")
//
// # Package Structure
//
//   - Hash family: hash.go (HashFunction, Reboot), fold.go (FoldAlgorithm)
//   - Tables: secondary.go (SecondaryTable), table.go (Table), stats.go
//   - Configuration: options.go (Option, With* functions), rand.go (SetSeed, Rand)
//   - Serialization: header.go, table_writer.go (MarshalBinary, WriteFile), open.go (Open, OpenBytes)
//   - Sizing: internal/prime (prime table), internal/bits (exact MAD arithmetic)
//   - Platform: fallocate_*.go, fadvise_*.go, madvise_*.go
package fks
