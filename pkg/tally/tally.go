// Package tally groups the IPv4 addresses found in an access log by subnet
// key and counts how often each address occurs.
package tally

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amosWeiskopf/harvester/internal/models"
)

// GroupBy selects how an address is turned into its subnet key
type GroupBy string

const (
	// GroupByOctet keys an address a.b.c.d by d
	GroupByOctet GroupBy = "octet"
	// GroupByChar keys an address by its final character
	GroupByChar GroupBy = "char"
)

// ErrInvalidGroupBy is returned for an unknown grouping mode
var ErrInvalidGroupBy = errors.New("invalid group-by mode")

// dottedRun matches a maximal run of dot-separated digit groups. Only runs of
// exactly four groups are addresses, so 1.2.3.4.5 yields nothing.
var dottedRun = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)*`)

// ParseGroupBy converts a configuration value into a GroupBy
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(s)) {
	case GroupByOctet:
		return GroupByOctet, nil
	case GroupByChar:
		return GroupByChar, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroupBy, s)
}

// ExtractIPs returns every dotted-quad address in line, in order. Addresses
// are returned in canonical form: 10.0.0.05 is reported as 10.0.0.5.
func ExtractIPs(line string) []string {
	var ips []string
	for _, loc := range dottedRun.FindAllStringIndex(line, -1) {
		if loc[0] > 0 && isWordByte(line[loc[0]-1]) {
			continue
		}
		if loc[1] < len(line) && isWordByte(line[loc[1]]) {
			continue
		}
		if ip, ok := parseIPv4(line[loc[0]:loc[1]]); ok {
			ips = append(ips, ip)
		}
	}
	return ips
}

func parseIPv4(s string) (string, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return "", false
	}
	var octets [4]byte
	for i, part := range parts {
		if len(part) > 3 {
			return "", false
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return "", false
		}
		octets[i] = byte(n)
	}
	return netip.AddrFrom4(octets).String(), true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// SubnetKey derives the grouping key for ip
func SubnetKey(ip string, mode GroupBy) string {
	if ip == "" {
		return ""
	}
	if mode == GroupByChar {
		return ip[len(ip)-1:]
	}
	return ip[strings.LastIndexByte(ip, '.')+1:]
}

// ReadLines calls fn for each line of r, in order, stopping at the first
// error from fn or from the reader. Lines may be of any length.
func ReadLines(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

type group struct {
	order  []string
	counts map[string]int
}

// Tally accumulates address counts per subnet key. Keys and addresses keep
// the order in which they were first seen.
type Tally struct {
	mode      GroupBy
	order     []string
	groups    map[string]*group
	lines     int
	addresses int
}

// New creates an empty Tally
func New(mode GroupBy) *Tally {
	return &Tally{
		mode:   mode,
		groups: make(map[string]*group),
	}
}

// Add counts one occurrence of ip
func (t *Tally) Add(ip string) {
	key := SubnetKey(ip, t.mode)
	g, ok := t.groups[key]
	if !ok {
		g = &group{counts: make(map[string]int)}
		t.groups[key] = g
		t.order = append(t.order, key)
	}
	if _, seen := g.counts[ip]; !seen {
		g.order = append(g.order, ip)
	}
	g.counts[ip]++
	t.addresses++
}

// AddLine counts every address found on line
func (t *Tally) AddLine(line string) {
	t.lines++
	for _, ip := range ExtractIPs(line) {
		t.Add(ip)
	}
}

// Scan reads r line by line into the tally
func (t *Tally) Scan(ctx context.Context, r io.Reader) error {
	return ReadLines(r, func(line string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.AddLine(line)
		return nil
	})
}

// Count returns how many times ip has been seen
func (t *Tally) Count(ip string) int {
	g, ok := t.groups[SubnetKey(ip, t.mode)]
	if !ok {
		return 0
	}
	return g.counts[ip]
}

// Report snapshots the tally
func (t *Tally) Report(source string) *models.TallyReport {
	report := &models.TallyReport{
		Source:        source,
		GroupBy:       string(t.mode),
		Groups:        make([]models.SubnetGroup, 0, len(t.order)),
		LinesRead:     t.lines,
		AddressesSeen: t.addresses,
		GeneratedAt:   time.Now(),
	}
	for _, key := range t.order {
		g := t.groups[key]
		sg := models.SubnetGroup{Key: key, Entries: make([]models.IPCount, 0, len(g.order))}
		for _, ip := range g.order {
			sg.Entries = append(sg.Entries, models.IPCount{IP: ip, Count: g.counts[ip]})
		}
		report.Groups = append(report.Groups, sg)
	}
	return report
}

// File tallies the log at path. The file is closed on every return path.
func File(ctx context.Context, path string, mode GroupBy) (*models.TallyReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	t := New(mode)
	if err := t.Scan(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", path, err)
	}
	return t.Report(path), nil
}
