// Command agora-verify checks a cast vote against the published ledger.
//
// The voter supplies the secret from signup, the salt from the cast receipt
// and the ranking as cast. The commitment is recomputed locally; only the
// resulting digest is compared against the ledger fetched from the server,
// so the secret never leaves the voter's machine.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"agora/internal/commit"
)

type ledgerRow struct {
	Ranking    string `json:"ranking"`
	Salt       string `json:"salt"`
	Commitment string `json:"commitment"`
}

func main() {
	server := flag.String("server", "http://localhost:8080", "agora server base URL")
	ballot := flag.String("ballot", "", "ballot ID (required)")
	secret := flag.String("secret", "", "attendee secret from signup (required)")
	salt := flag.String("salt", "", "salt from the cast receipt (required)")
	rank := flag.String("ranking", "", "ranking as cast, e.g. A>B=C (required)")
	flag.Parse()

	if *ballot == "" || *secret == "" || *salt == "" || *rank == "" {
		flag.Usage()
		os.Exit(2)
	}

	digest := commit.Commit(*secret, *salt, canonicalize(*rank))

	rows, err := fetchLedger(*server, *ballot)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fetch ledger:", err)
		os.Exit(1)
	}

	for _, row := range rows {
		if row.Commitment == digest {
			fmt.Println("OK: vote is recorded unmodified")
			return
		}
	}
	fmt.Println("MISSING: no ledger entry matches this vote")
	os.Exit(1)
}

// canonicalize normalizes the ranking the way the server does before
// committing: members of each tie group sorted, groups joined by '>'.
func canonicalize(raw string) string {
	groups := strings.Split(raw, ">")
	for i, g := range groups {
		ms := strings.Split(g, "=")
		sort.Strings(ms)
		groups[i] = strings.Join(ms, "=")
	}
	return strings.Join(groups, ">")
}

func fetchLedger(server, ballot string) ([]ledgerRow, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/api/ballots/%s/records", strings.TrimRight(server, "/"), ballot)
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	var rows []ledgerRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}
