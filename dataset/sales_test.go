package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected []Record
		err      error
	}{
		"empty file": {
			input: "",
			err:   ErrNoHeader,
		},
		"missing sales column": {
			input: "Store,Date,Open\n1,2015-01-01,1\n",
			err:   ErrMissingColumn,
		},
		"malformed date": {
			input: "Store,DayOfWeek,Date,Sales,Open\n1,3,01/02/2015,5000,1\n",
			err:   ErrMalformedValue,
		},
		"malformed sales": {
			input: "Store,DayOfWeek,Date,Sales,Open\n1,3,2015-01-01,abc,1\n",
			err:   ErrMalformedValue,
		},
		"full schema": {
			input: "Store,DayOfWeek,Date,Sales,Customers,Open,Promo,StateHoliday,SchoolHoliday\n" +
				"4,5,2015-07-31,11084,700,1,1,0,1\n",
			expected: []Record{
				{
					Store:         4,
					DayOfWeek:     5,
					Date:          time.Date(2015, 7, 31, 0, 0, 0, 0, time.UTC),
					Sales:         11084,
					Customers:     700,
					Open:          1,
					Promo:         1,
					StateHoliday:  "0",
					SchoolHoliday: 1,
				},
			},
		},
		"case insensitive headers": {
			input: "store,dayofweek,DATE,SALES,open\n4,5,2015-07-31,11084,1\n",
			expected: []Record{
				{
					Store:     4,
					DayOfWeek: 5,
					Date:      time.Date(2015, 7, 31, 0, 0, 0, 0, time.UTC),
					Sales:     11084,
					Open:      1,
				},
			},
		},
		"letter state holiday": {
			input: "Store,Date,Sales,Open,StateHoliday\n4,2015-12-25,0,0,c\n",
			expected: []Record{
				{
					Store:        4,
					Date:         time.Date(2015, 12, 25, 0, 0, 0, 0, time.UTC),
					Open:         0,
					StateHoliday: "c",
				},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			records, err := ReadCSV(strings.NewReader(td.input))
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, records)
		})
	}
}
