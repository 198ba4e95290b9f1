package archive

import (
	"fmt"
	"strings"
)

// resultToken maps a record's winner/reason to a PGN result string.
func resultToken(rec *Record) string {
	switch rec.Winner {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	}
	if rec.Reason != "" {
		return "1/2-1/2"
	}
	return "*"
}

// BuildPGN renders the record as PGN text from the SAN move list.
func BuildPGN(rec *Record) string {
	if rec == nil {
		return ""
	}
	token := resultToken(rec)

	var b strings.Builder
	b.WriteString("[Event \"Arena\"]\n")
	b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", sanitizePGN(rec.RoomID)))
	date := rec.EndedAt
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(rec.White)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(rec.Black)))
	if rec.Reason != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(rec.Reason)))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", token))

	for i := 0; i < len(rec.MovesSAN); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, strings.TrimSpace(rec.MovesSAN[i])))
		if i+1 < len(rec.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(rec.MovesSAN[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(token)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
