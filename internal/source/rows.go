package source

import (
	"strconv"
	"strings"
	"time"
	"tournament-tracker/internal/domain"
)

// Sheet cells are free-form; dates show up in whichever format the form or
// a manual edit produced.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1/2/2006 15:04:05",
	time.RFC3339,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// parseMatchRows turns raw sheet rows into typed match records. Rows with
// an unparseable date, an unknown match type, or a missing player name are
// dropped; a half-filled row would otherwise poison the rankings.
func parseMatchRows(rows [][]string) []domain.Match {
	matches := make([]domain.Match, 0, len(rows))
	for _, row := range rows {
		date, ok := parseDate(cell(row, 0))
		if !ok {
			continue
		}
		division, err := domain.ParseDivision(cell(row, 8))
		if err != nil {
			continue
		}
		winner, loser := cell(row, 1), cell(row, 4)
		if winner == "" || loser == "" {
			continue
		}

		roundsLost, _ := strconv.Atoi(cell(row, 7))

		matches = append(matches, domain.Match{
			Date:             date,
			Winner:           winner,
			WinnerClass:      cell(row, 2),
			WinnerBuild:      cell(row, 3),
			Loser:            loser,
			LoserClass:       cell(row, 5),
			LoserBuild:       cell(row, 6),
			WinnerRoundsLost: roundsLost,
			MatchType:        division,
			Title:            cell(row, 9),
		})
	}
	return matches
}

func parseRosterRows(rows [][]string) domain.Roster {
	roster := make(domain.Roster, len(rows))
	for _, row := range rows {
		uuid := cell(row, 0)
		if uuid == "" {
			continue
		}
		roster[uuid] = domain.RosterEntry{
			UUID:        uuid,
			ArenaName:   cell(row, 1),
			DataName:    cell(row, 2),
			DiscordName: cell(row, 3),
		}
	}
	return roster
}

// parseRulesRows expects the title and revision stamp in row 1, then one
// section per row.
func parseRulesRows(rows [][]string) *domain.RulesDocument {
	doc := &domain.RulesDocument{}
	if len(rows) == 0 {
		return doc
	}

	doc.Title = cell(rows[0], 0)
	doc.Revised = cell(rows[0], 1)

	for _, row := range rows[1:] {
		heading := cell(row, 0)
		if heading == "" {
			continue
		}
		doc.Sections = append(doc.Sections, domain.RuleSection{
			Heading: heading,
			Body:    cell(row, 1),
		})
	}
	return doc
}

func parsePlayerRows(rows [][]string) []domain.PlayerEntry {
	players := make([]domain.PlayerEntry, 0, len(rows))
	for _, row := range rows {
		name := cell(row, 0)
		if name == "" {
			continue
		}
		players = append(players, domain.PlayerEntry{
			Name:        name,
			DiscordName: cell(row, 1),
			Timezone:    cell(row, 2),
			Joined:      cell(row, 3),
		})
	}
	return players
}

func parseSignupRows(rows [][]string) []domain.Signup {
	signups := make([]domain.Signup, 0, len(rows))
	for _, row := range rows {
		submitted, ok := parseDate(cell(row, 0))
		if !ok {
			continue
		}
		division, err := domain.ParseDivision(cell(row, 2))
		if err != nil {
			continue
		}
		name := cell(row, 1)
		if name == "" {
			continue
		}
		signups = append(signups, domain.Signup{
			SubmittedAt: submitted,
			PlayerName:  name,
			Division:    division,
			Class:       cell(row, 3),
			Build:       cell(row, 4),
			Notes:       cell(row, 5),
		})
	}
	return signups
}
