// Bench builds an FKS perfect hash table over a word list, verifies every
// membership answer, and reports build cost, table shape and query latency.
//
// Usage:
//
//	go run ./cmd/bench -keys 1000000 -fold xxh3
//	go run ./cmd/bench -words /usr/share/dict/words -out words.fks -v 1
//
// Flags:
//
//	-keys          Number of random words when -words is not set (default: 1,000,000)
//	-words         File with one word per line
//	-seed          Seed for the process-wide generator, 0 for random (default: 0)
//	-fold          Fold algorithm: horner, murmur3 or xxh3 (default: horner)
//	-max-attempts  Hash draws per secondary table (default: 100)
//	-table-size    Top-level capacity hint, 0 for the key count (default: 0)
//	-workers       Parallel verification workers (default: GOMAXPROCS)
//	-out           Write the table to this file and verify the reopened copy
//	-dump          Print every slot to stdout
//	-v             Log verbosity: 1 for summaries, 2 to trace reboots
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	mrand "math/rand/v2"
	"os"
	"runtime"
	"runtime/metrics"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-logr/stdr"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/fks"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// readWords returns the distinct non-empty lines of path.
func readWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	seen := make(map[string]struct{})
	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words, sc.Err()
}

// randomWords returns n distinct lowercase words.
func randomWords(n int) []string {
	seen := make(map[string]struct{}, n)
	words := make([]string, 0, n)
	for len(words) < n {
		b := make([]byte, 4+mrand.IntN(12))
		for i := range b {
			b[i] = byte('a' + mrand.IntN(26))
		}
		w := string(b)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// verify checks every word is a member and that probes outside the set are
// not, splitting the work across workers.
func verify(tbl *fks.Table, words []string, workers int) error {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (len(words) + workers - 1) / max(workers, 1)
	for start := 0; start < len(words); start += chunk {
		part := words[start:min(start+chunk, len(words))]
		g.Go(func() error {
			for _, w := range part {
				if !tbl.Contains(w) {
					return fmt.Errorf("missing word %q", w)
				}
				probe := w + "#"
				if _, member := set[probe]; !member && tbl.Contains(probe) {
					return fmt.Errorf("false positive %q", probe)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func main() {
	keysFlag := flag.Int("keys", 1_000_000, "number of random words when -words is not set")
	wordsFlag := flag.String("words", "", "file with one word per line")
	seedFlag := flag.Uint64("seed", 0, "seed for the process-wide generator (0 = random)")
	foldFlag := flag.String("fold", "horner", "fold algorithm: horner, murmur3 or xxh3")
	attemptsFlag := flag.Int("max-attempts", 100, "hash draws per secondary table")
	tableSizeFlag := flag.Int("table-size", 0, "top-level capacity hint (0 = key count)")
	workersFlag := flag.Int("workers", runtime.GOMAXPROCS(0), "parallel verification workers")
	outFlag := flag.String("out", "", "write the table to this file and verify the reopened copy")
	dumpFlag := flag.Bool("dump", false, "print every slot to stdout")
	verbosity := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	stdr.SetVerbosity(*verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("fks")

	fold, err := fks.ParseFoldAlgorithm(*foldFlag)
	if err != nil {
		logger.Error(err, "invalid -fold")
		os.Exit(2)
	}
	if *seedFlag != 0 {
		fks.SetSeed(*seedFlag)
	}

	var words []string
	if *wordsFlag != "" {
		fmt.Printf("Reading %s...\n", *wordsFlag)
		words, err = readWords(*wordsFlag)
		if err != nil {
			logger.Error(err, "read words", "path", *wordsFlag)
			os.Exit(1)
		}
	} else {
		fmt.Println("Generating words...")
		words = randomWords(*keysFlag)
	}
	numKeys := len(words)

	runtime.GC()
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)

	// 10ms sampling for peak heap. Uses runtime/metrics instead of
	// ReadMemStats to avoid stop-the-world pauses.
	var peakAlloc atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := peakAlloc.Load()
					if heapBytes <= old || peakAlloc.CompareAndSwap(old, heapBytes) {
						break
					}
				}
			}
		}
	}()

	fmt.Printf("Building table over %d words...\n", numKeys)
	buildStart := time.Now()
	tbl, err := fks.New(words,
		fks.WithFoldAlgorithm(fold),
		fks.WithMaxAttempts(*attemptsFlag),
		fks.WithTableSize(*tableSizeFlag),
		fks.WithLogger(logger),
	)
	buildDuration := time.Since(buildStart)
	close(done)
	if err != nil {
		logger.Error(err, "build failed")
		os.Exit(1)
	}
	peakHeapMem := peakAlloc.Load() - min(baseline.Alloc, peakAlloc.Load())

	fmt.Println("Verifying membership...")
	verifyStart := time.Now()
	if err := verify(tbl, words, max(*workersFlag, 1)); err != nil {
		logger.Error(err, "verification failed")
		os.Exit(1)
	}
	verifyDuration := time.Since(verifyStart)

	var fileSize int64
	if *outFlag != "" {
		if err := tbl.WriteFile(*outFlag); err != nil {
			logger.Error(err, "write table", "path", *outFlag)
			os.Exit(1)
		}
		reopened, err := fks.Open(*outFlag)
		if err != nil {
			logger.Error(err, "open table", "path", *outFlag)
			os.Exit(1)
		}
		if err := verify(reopened, words, max(*workersFlag, 1)); err != nil {
			logger.Error(err, "reopened table failed verification", "path", *outFlag)
			os.Exit(1)
		}
		if info, err := os.Stat(*outFlag); err == nil {
			fileSize = info.Size()
		}
	}

	if *dumpFlag {
		if err := tbl.Dump(os.Stdout); err != nil {
			logger.Error(err, "dump")
			os.Exit(1)
		}
	}

	fmt.Println("Benchmarking queries...")
	queryOrder := mrand.Perm(numKeys)
	numQueries := 100000
	queryStart := time.Now()
	for i := range numQueries {
		if numKeys > 0 {
			_ = tbl.Contains(words[queryOrder[i%numKeys]])
		}
	}
	queryDuration := time.Since(queryStart)
	avgLatency := float64(queryDuration.Nanoseconds()) / float64(numQueries)

	s := tbl.Stats()
	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╗\n")
	fmt.Printf("║ Fold: %-14s║ Keys: %-9d║\n", fold, numKeys)
	fmt.Printf("╠═════════════════════╬════════════════╣\n")
	fmt.Printf("║ Top-level slots     ║ %14d ║\n", s.TableSize)
	fmt.Printf("║   - empty           ║ %14d ║\n", s.EmptySlots)
	fmt.Printf("║   - direct          ║ %14d ║\n", s.DirectSlots)
	fmt.Printf("║   - secondary       ║ %14d ║\n", s.SecondaryTables)
	fmt.Printf("║ Secondary slots     ║ %14d ║\n", s.SecondarySlots)
	fmt.Printf("║ Largest bucket      ║ %14d ║\n", s.MaxBucketSize)
	fmt.Printf("║ Attempts (total)    ║ %14d ║\n", s.TotalAttempts)
	fmt.Printf("║ Attempts (max)      ║ %14d ║\n", s.MaxAttempts)
	fmt.Printf("║ Slot bits per key   ║ %9.2f bits ║\n", s.BitsPerKey)
	if fileSize > 0 && numKeys > 0 {
		fmt.Printf("║ File bits per key   ║ %9.2f bits ║\n", float64(fileSize*8)/float64(numKeys))
	}
	fmt.Printf("║ Build time          ║ %10.2f sec ║\n", buildDuration.Seconds())
	fmt.Printf("║ Verify time         ║ %10.2f sec ║\n", verifyDuration.Seconds())
	fmt.Printf("║ Query latency       ║ %11.1f ns ║\n", avgLatency)
	fmt.Printf("║ Peak heap (build)   ║ %11.1f MB ║\n", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ Peak RSS            ║ %11.1f MB ║\n", float64(getMaxRSS())/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╝\n")
}
