package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchPath = "/vacancies"
)

// SearchParams mirrors the query of GET /vacancies. The hhparam tag names
// the query key when it differs from the yaml one; "-" keeps a field local.
type SearchParams struct {
	Text        string   `yaml:"text"`
	Areas       []int    `yaml:"areas" hhparam:"area"`
	OrderBy     string   `yaml:"order_by" mapstructure:"order_by"`
	Employer    uint     `yaml:"employer_id" mapstructure:"employer_id"`
	SearchField string   `yaml:"search_field" mapstructure:"search_field"`
	Schedules   []string `yaml:"schedules" hhparam:"schedule"`
	PerPage     string   `yaml:"per_page" mapstructure:"per_page"`
	Experience  string   `yaml:"experience"`
	Period      uint     `yaml:"period"`
	OnlySalary  bool     `yaml:"only_with_salary" mapstructure:"only_with_salary"`
	MaxPages    int      `yaml:"max_pages" mapstructure:"max_pages" hhparam:"-"`
}

func (c *Client) search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	query := *params
	// Fewer, larger pages are faster.
	if query.PerPage == "" {
		query.PerPage = perPage
	}

	items, err := c.GetItems(ctx, c.APIURL+SearchPath, buildParams(&query), query.MaxPages)
	if err != nil {
		return nil, err
	}

	vacancies, err := decodeVacancies(items)
	if err != nil {
		return nil, err
	}
	return &Vacancies{Items: vacancies}, nil
}

// decodeVacancies maps raw list items onto Vacancy using the json tags.
func decodeVacancies(items []Item) ([]*Vacancy, error) {
	var vacancies []*Vacancy

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &vacancies,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode vacancies: %w", err)
	}
	return vacancies, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	v := reflect.ValueOf(params).Elem()

	for _, field := range reflect.VisibleFields(v.Type()) {
		key, ok := queryKey(field)
		if !ok {
			continue
		}

		switch value := v.FieldByIndex(field.Index).Interface().(type) {
		case []int:
			for _, item := range value {
				q.Add(key, strconv.Itoa(item))
			}
		case []string:
			for _, item := range value {
				q.Add(key, item)
			}
		case bool:
			if value {
				q.Set(key, "true")
			}
		default:
			if s := fmt.Sprint(value); s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}

func queryKey(field reflect.StructField) (string, bool) {
	if key := field.Tag.Get("hhparam"); key != "" {
		return key, key != "-"
	}
	key, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
	return key, key != ""
}
