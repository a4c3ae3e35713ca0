package main

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/scriptcast/scriptcast/internal/voice"
)

var charactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "List configured characters and their voices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		registry, err := cfg.BuildRegistry()
		if err != nil {
			return err
		}

		characters := registry.Characters()
		roster := make([]*voice.Character, 0, len(characters)+1)
		roster = append(roster, characters...)
		if n := registry.Narrator(); n != nil {
			roster = append(roster, n)
		}
		fmt.Print(characterTable(roster))
		return nil
	},
}

// characterTable renders a fixed-width table. Column widths account for
// double-width CJK names via runewidth.
func characterTable(roster []*voice.Character) string {
	headers := []string{"NAME", "GENDER", "SPK_ID", "MODEL", "ALIASES"}
	rows := make([][]string, 0, len(roster))
	for _, c := range roster {
		rows = append(rows, []string{
			c.Name,
			c.Gender,
			fmt.Sprintf("%d", c.Voice.SpeakerID),
			c.Voice.AcousticModel,
			strings.Join(c.Aliases, ", "),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			if i < len(cells)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}
