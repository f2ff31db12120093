package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Valmach/HashMapper/pkg/diskmap"
	"github.com/Valmach/HashMapper/pkg/serde"
	"github.com/Valmach/HashMapper/pkg/typedmap"
)

// op mirrors TestDiskMap.java's rng.nextInt(4) dispatch: put, remove,
// replace, putIfAbsent, each exercised against the same key/value space
// as a reference in-memory map so a mismatch is detectable.
const (
	opPut = iota
	opRemove
	opReplace
	opPutIfAbsent
	numOps
)

func main() {
	var dirFlag = flag.String("dir", "", "base folder for the map's backing files (required)")
	var opsFlag = flag.Int("ops", 10_000_000, "number of random operations to run")
	var keysFlag = flag.Int("keys", 1_000_000, "size of the random key/value space")
	var workersFlag = flag.Int("n", 1, "number of concurrent worker goroutines")
	var verifyFlag = flag.Bool("verify", true, "compare the final map contents against an in-memory reference")
	flag.Parse()

	if *dirFlag == "" {
		fmt.Println("must specify -dir")
		os.Exit(1)
	}
	if *workersFlag > 1 && *verifyFlag {
		// The randomized workload races each worker's reference-map
		// update against its diskmap operation independently; with more
		// than one worker two goroutines can interleave on the same key
		// between the two, so the reference map is no longer a reliable
		// oracle. Only the single-worker case reproduces the original
		// sequential test exactly.
		fmt.Println("note: -verify with -n>1 workers is best-effort; interleaved ops on the same key can legitimately diverge from the reference map")
	}

	m, err := typedmap.Open(diskmap.Options{BaseFolderLocation: *dirFlag}, serde.Int64Codec, serde.Int64Codec)
	if err != nil {
		panic(err)
	}
	defer m.Close()

	reference := make(map[int64]int64)
	var referenceMu sync.Mutex

	start := time.Now()
	var g errgroup.Group
	opsPerWorker := *opsFlag / *workersFlag
	for w := 0; w < *workersFlag; w++ {
		w := w
		g.Go(func() error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)))
			for i := 0; i < opsPerWorker; i++ {
				k := int64(rng.Intn(*keysFlag))
				v := int64(rng.Intn(*keysFlag))
				switch rng.Intn(numOps) {
				case opPut:
					m.Put(k, v)
					referenceMu.Lock()
					reference[k] = v
					referenceMu.Unlock()
				case opRemove:
					m.Remove(k)
					referenceMu.Lock()
					delete(reference, k)
					referenceMu.Unlock()
				case opReplace:
					m.Replace(k, v)
					referenceMu.Lock()
					if _, ok := reference[k]; ok {
						reference[k] = v
					}
					referenceMu.Unlock()
				case opPutIfAbsent:
					m.PutIfAbsent(k, v)
					referenceMu.Lock()
					if _, ok := reference[k]; !ok {
						reference[k] = v
					}
					referenceMu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
	elapsed := time.Since(start)
	fmt.Printf("ran %d ops across %d workers in %s\n", opsPerWorker**workersFlag, *workersFlag, elapsed)

	if !*verifyFlag {
		return
	}

	mismatches := 0
	for k, wantVal := range reference {
		gotVal, ok := m.Get(k)
		if !ok || gotVal != wantVal {
			mismatches++
			fmt.Printf("mismatch at key %d: want %d present=true, got %d present=%v\n", k, wantVal, gotVal, ok)
		}
	}
	if uint64(len(reference)) != m.Size() {
		fmt.Printf("size mismatch: reference has %d keys, map reports %d\n", len(reference), m.Size())
		mismatches++
	}
	if mismatches == 0 {
		fmt.Println("verification passed: map matches in-memory reference")
	} else {
		fmt.Printf("verification failed: %d mismatches\n", mismatches)
		os.Exit(1)
	}
}
