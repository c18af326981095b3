// Package demo generates a deterministic people dataset for trying the
// service without bringing your own data.
package demo

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

var PeopleColumns = []string{"Index", "User Id", "First Name", "Last Name", "Sex", "Email", "Phone", "Date of birth", "Job Title"}

var (
	maleNames   = []string{"Shelby", "Phillip", "Kristine", "Yesenia", "Lori", "Erin", "Jared", "Dwayne", "Kent", "Marco", "Ruben", "Tyrone"}
	femaleNames = []string{"Alexis", "Mallory", "Joanna", "Brenda", "Kristin", "Lindsey", "Nina", "Priscilla", "Cassandra", "Heidi", "Sonia", "Tara"}
	lastNames   = []string{"Terrell", "Summers", "Travis", "Martinez", "Todd", "Day", "Mcconnell", "Byrd", "Reyes", "O'Neil", "Smith", "Holden", "Gallegos", "Vaughn"}
	jobTitles   = []string{"Games developer", "Phytotherapist", "Homeopath", "Market researcher", "Veterinary surgeon", "Waste management officer", "Scientist, audiological", "Barrister", "Engineer, broadcasting"}
	domains     = []string{"example.com", "example.org", "example.net"}
)

type Generator struct {
	rnd      *rand.Rand
	sequence int
	epoch    time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd:   rand.New(rand.NewSource(seed)),
		epoch: time.Date(1905, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// NextPerson returns one row in PeopleColumns order.
func (g *Generator) NextPerson() []string {
	g.sequence++
	sex := "Male"
	first := pickOne(g.rnd, maleNames)
	if g.rnd.Intn(2) == 0 {
		sex = "Female"
		first = pickOne(g.rnd, femaleNames)
	}
	last := pickOne(g.rnd, lastNames)
	born := g.epoch.AddDate(0, 0, g.rnd.Intn(115*365))

	return []string{
		strconv.Itoa(g.sequence),
		fmt.Sprintf("%015X", g.rnd.Uint64()>>4),
		first,
		last,
		sex,
		fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(strings.ReplaceAll(last, "'", "")), g.sequence, pickOne(g.rnd, domains)),
		fmt.Sprintf("%03d-%03d-%04d", g.rnd.Intn(900)+100, g.rnd.Intn(1000), g.rnd.Intn(10000)),
		born.Format(time.DateOnly),
		pickOne(g.rnd, jobTitles),
	}
}

// WritePeopleCSV writes a header and count generated rows.
func WritePeopleCSV(w io.Writer, seed int64, count int) error {
	if count < 0 {
		return fmt.Errorf("row count must not be negative: %d", count)
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(PeopleColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	g := NewGenerator(seed)
	for i := 0; i < count; i++ {
		if err := writer.Write(g.NextPerson()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
