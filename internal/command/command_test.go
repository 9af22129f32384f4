package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tt := []struct {
		name string
		line string
		exp  Command
	}{
		{name: "help", line: "HELP", exp: Command{Kind: KindHelp}},
		{name: "lower case", line: "help", exp: Command{Kind: KindHelp}},
		{name: "mixed case", line: "StAtUs", exp: Command{Kind: KindStatus}},
		{name: "surrounding whitespace", line: "  start \r", exp: Command{Kind: KindStart}},
		{name: "stop", line: "stop", exp: Command{Kind: KindStop}},
		{name: "save", line: "Save", exp: Command{Kind: KindSave}},
		{name: "set dry", line: "SET DRY 430", exp: Command{Kind: KindSetDry, Value: 430}},
		{name: "set wet", line: "set wet 540", exp: Command{Kind: KindSetWet, Value: 540}},
		{name: "set dry negative", line: "set dry -5", exp: Command{Kind: KindSetDry, Value: -5}},
		{name: "set wet out of range parses", line: "SET WET 5000", exp: Command{Kind: KindSetWet, Value: 5000}},
		{name: "set argument whitespace", line: "set dry   410  ", exp: Command{Kind: KindSetDry, Value: 410}},
		{name: "set dry missing argument", line: "SET DRY", exp: Command{Kind: KindUnknown}},
		{name: "set dry non-numeric", line: "SET DRY abc", exp: Command{Kind: KindUnknown}},
		{name: "set unknown field", line: "SET FOO 12", exp: Command{Kind: KindUnknown}},
		{name: "empty line", line: "", exp: Command{Kind: KindUnknown}},
		{name: "blank line", line: "   ", exp: Command{Kind: KindUnknown}},
		{name: "trailing junk", line: "STARTX", exp: Command{Kind: KindUnknown}},
		{name: "gibberish", line: "water the plants", exp: Command{Kind: KindUnknown}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, Parse(tc.line))
		})
	}
}
