// Command replay reads the append-only round logs and prints one summary
// line per session, in the order the sessions first appear.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	persistlog "savingsmonopoly.app/internal/persistence/log"
)

func main() {
	var (
		dataDir   = flag.String("data", "./data", "runtime data directory")
		sessionID = flag.String("session", "", "print every round of one session instead of summaries")
	)
	flag.Parse()

	files, err := listRoundFiles(filepath.Join(*dataDir, "rounds"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "list round logs:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no round logs found under", *dataDir)
		os.Exit(1)
	}

	type summary struct {
		entry  persistlog.RoundEntry // latest entry wins
		rounds int
	}
	sums := map[string]*summary{}
	var order []string

	for _, path := range files {
		err := scanRounds(path, func(e persistlog.RoundEntry) {
			if *sessionID != "" {
				if e.SessionID == *sessionID {
					fmt.Printf("%s r%02d %-24s %-24s money=%+d wellbeing=%d time=%d savings=%d %s\n",
						e.TS, e.Round, e.Card, e.Choice, e.Money, e.Wellbeing, e.Time, e.Savings, e.Status)
				}
				return
			}
			s, ok := sums[e.SessionID]
			if !ok {
				s = &summary{}
				sums[e.SessionID] = s
				order = append(order, e.SessionID)
			}
			s.rounds++
			if e.Round >= s.entry.Round {
				s.entry = e
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	for _, id := range order {
		s := sums[id]
		e := s.entry
		fmt.Printf("%-8s %-12s %-12s rounds=%d savings=%d wellbeing=%d time=%d %s\n",
			id, e.Team, e.Player, s.rounds, e.Savings, e.Wellbeing, e.Time, e.Status)
	}
}

func listRoundFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "rounds-") && strings.HasSuffix(name, ".jsonl.zst") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

func scanRounds(path string, fn func(persistlog.RoundEntry)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e persistlog.RoundEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return fmt.Errorf("bad entry: %w", err)
		}
		fn(e)
	}
	return sc.Err()
}
