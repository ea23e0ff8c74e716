package dataset

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Codebook limits for the education code.
const (
	MinEducationCode = 0
	MaxEducationCode = 116
)

// Band is the five-way bucketing of the education code. The zero value is
// not a band.
type Band int

const (
	Primary Band = iota + 1
	HighSchool
	Bachelors
	Masters
	DoctoralProfessional
)

// Bands lists every band in rank order.
var Bands = []Band{Primary, HighSchool, Bachelors, Masters, DoctoralProfessional}

func (b Band) String() string {
	switch b {
	case Primary:
		return "Primary"
	case HighSchool:
		return "HighSchool"
	case Bachelors:
		return "Bachelors"
	case Masters:
		return "Masters"
	case DoctoralProfessional:
		return "DoctoralProfessional"
	default:
		return fmt.Sprintf("Band(%d)", int(b))
	}
}

// Rank is the band's ordinal position, 1 for Primary through 5.
func (b Band) Rank() int { return int(b) }

// CollegeFlag is the coarse two-way education split.
type CollegeFlag int

const (
	NotCollege CollegeFlag = iota + 1
	CollegeOrMore
)

func (f CollegeFlag) String() string {
	switch f {
	case NotCollege:
		return "NotCollege"
	case CollegeOrMore:
		return "CollegeOrMore"
	default:
		return fmt.Sprintf("CollegeFlag(%d)", int(f))
	}
}

// Gender is the relabelled sex code.
type Gender int

const (
	Male Gender = iota + 1
	Female
)

func (g Gender) String() string {
	switch g {
	case Male:
		return "Male"
	case Female:
		return "Female"
	default:
		return fmt.Sprintf("Gender(%d)", int(g))
	}
}

// BandFor maps an education code onto its band. The ranges are disjoint and
// cover MinEducationCode..MaxEducationCode; ok is false outside them.
func BandFor(code int) (band Band, ok bool) {
	switch {
	case code < MinEducationCode || code > MaxEducationCode:
		return 0, false
	case code < 63:
		return Primary, true
	case code <= 100:
		return HighSchool, true
	case code <= 113:
		return Bachelors, true
	case code == 114:
		return Masters, true
	default:
		return DoctoralProfessional, true
	}
}

// CollegeRuleMatches returns every college rule the code satisfies, in rule
// order. Both rules are inclusive at 100, so code 100 yields two matches.
func CollegeRuleMatches(code int) []CollegeFlag {
	var matches []CollegeFlag
	if code >= MinEducationCode && code <= 100 {
		matches = append(matches, NotCollege)
	}
	if code >= 100 && code <= MaxEducationCode {
		matches = append(matches, CollegeOrMore)
	}
	return matches
}

// CollegeFlagFor applies the college rules in order, each match overwriting
// the previous one. Code 100 therefore ends up CollegeOrMore.
func CollegeFlagFor(code int) (flag CollegeFlag, ok bool) {
	matches := CollegeRuleMatches(code)
	if len(matches) == 0 {
		return 0, false
	}
	return matches[len(matches)-1], true
}

// GenderFor relabels the sex code: 1 is Male, anything else Female.
func GenderFor(sexCode int) Gender {
	if sexCode == 1 {
		return Male
	}
	return Female
}

// Recode appends education_band, college_flag, gender_label and band_rank,
// each derived from its own row only. Missing codes produce missing derived
// cells so the outlier filter's missing-value stage drops them. A present
// education code outside the codebook is an EncodingError.
func Recode(df dataframe.DataFrame, cols Columns) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("recode: %w", df.Err)
	}
	education, err := Floats(df, cols.Education)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	sex, err := Floats(df, cols.Sex)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	n := df.Nrow()
	bands := make([]string, n)
	flags := make([]string, n)
	genders := make([]string, n)
	ranks := make([]string, n)

	for i := 0; i < n; i++ {
		if code := education[i]; math.IsNaN(code) {
			bands[i], flags[i], ranks[i] = naCell, naCell, naCell
		} else {
			if code != math.Trunc(code) {
				return dataframe.DataFrame{}, &EncodingError{Row: i, Column: cols.Education, Value: code}
			}
			band, ok := BandFor(int(code))
			if !ok {
				return dataframe.DataFrame{}, &EncodingError{Row: i, Column: cols.Education, Value: code}
			}
			flag, _ := CollegeFlagFor(int(code))
			bands[i] = band.String()
			flags[i] = flag.String()
			ranks[i] = fmt.Sprint(band.Rank())
		}

		if math.IsNaN(sex[i]) {
			genders[i] = naCell
		} else {
			genders[i] = GenderFor(int(sex[i])).String()
		}
	}

	out := df.
		Mutate(series.New(bands, series.String, ColEducationBand)).
		Mutate(series.New(flags, series.String, ColCollegeFlag)).
		Mutate(series.New(genders, series.String, ColGenderLabel)).
		Mutate(series.New(ranks, series.Int, ColBandRank))
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("recode: %w", out.Err)
	}
	return out, nil
}

// naCell is how gota spells a missing cell when building from strings.
const naCell = "NaN"
