package models

import "time"

// IPCount is the number of times one address appeared in the log
type IPCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// SubnetGroup holds every address sharing a subnet key, in first-seen order
type SubnetGroup struct {
	Key     string    `json:"key"`
	Entries []IPCount `json:"entries"`
}

// Total returns the number of occurrences across the group
func (g SubnetGroup) Total() int {
	total := 0
	for _, e := range g.Entries {
		total += e.Count
	}
	return total
}

// TallyReport is the grouped view of an access log
type TallyReport struct {
	Source        string        `json:"source"`
	GroupBy       string        `json:"group_by"`
	Groups        []SubnetGroup `json:"groups"`
	LinesRead     int           `json:"lines_read"`
	AddressesSeen int           `json:"addresses_seen"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// TallyRow is the flattened CSV form of a single address count
type TallyRow struct {
	Key   string `csv:"subnet_key"`
	IP    string `csv:"ip"`
	Count int    `csv:"count"`
}

// Rows flattens the report, preserving group and address order
func (r *TallyReport) Rows() []TallyRow {
	var rows []TallyRow
	for _, g := range r.Groups {
		for _, e := range g.Entries {
			rows = append(rows, TallyRow{Key: g.Key, IP: e.IP, Count: e.Count})
		}
	}
	return rows
}
