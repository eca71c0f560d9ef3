package configs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestYearSequenceRange(t *testing.T) {
	cfg := ScrapeConfig{StartYear: 2023, EndYear: 2020}
	require.Equal(t, []int{2023, 2022, 2021, 2020}, cfg.YearSequence())
}

func TestYearSequenceExplicitListWins(t *testing.T) {
	cfg := ScrapeConfig{StartYear: 2023, EndYear: 2020, Years: []int{1985, 2001}}
	require.Equal(t, []int{1985, 2001}, cfg.YearSequence())
}

func TestYearSequenceInvertedRange(t *testing.T) {
	cfg := ScrapeConfig{StartYear: 2000, EndYear: 2020}
	require.Nil(t, cfg.YearSequence())
}

func TestParseYearList(t *testing.T) {
	years, err := parseYearList(" 2021, 2019 ,1985 ")
	require.NoError(t, err)
	require.Equal(t, []int{2021, 2019, 1985}, years)

	_, err = parseYearList("2021,abc")
	require.Error(t, err)

	_, err = parseYearList(" , ")
	require.Error(t, err)
}

func TestParseSinkList(t *testing.T) {
	require.Equal(t, []string{"csv", "postgres"}, parseSinkList(" CSV , postgres ,"))
	require.Empty(t, parseSinkList(""))
}
