package fund

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"FundSentinel/internal/model"
)

// ErrUnknownFund is returned when a code is not on the watchlist.
var ErrUnknownFund = errors.New("unknown fund")

// KeywordRule maps a display-name keyword to a category.
type KeywordRule struct {
	Keyword  string              `yaml:"keyword"`
	Category model.AssetCategory `yaml:"category"`
}

// DefaultKeywordRules resolves the usual watchlist names. Earlier rules win.
var DefaultKeywordRules = []KeywordRule{
	{"证券", model.CategoryBrokerage},
	{"券商", model.CategoryBrokerage},
	{"煤炭", model.CategoryDefensiveCommodity},
	{"白银", model.CategoryDefensiveCommodity},
	{"黄金", model.CategoryDefensiveCommodity},
	{"纳", model.CategoryUSIndex},
	{"标普", model.CategoryUSIndex},
	{"半导体", model.CategoryHighVolTech},
	{"人工智能", model.CategoryHighVolTech},
	{"5G", model.CategoryHighVolTech},
	{"CPO", model.CategoryHighVolTech},
}

// Entry is one configured watchlist line. Category may be empty, in which case
// it is resolved from the display name.
type Entry struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// Registry is the read-only watchlist with categories resolved once at load time.
type Registry struct {
	mu    sync.RWMutex
	funds map[string]model.Fund
	order []string
}

// ResolveCategory returns the category of the first keyword contained in name.
func ResolveCategory(name string, rules []KeywordRule) model.AssetCategory {
	for _, r := range rules {
		if r.Keyword != "" && strings.Contains(name, r.Keyword) {
			return r.Category
		}
	}
	return model.CategoryDefault
}

// NewRegistry builds the watchlist. Entries keep their configured order.
func NewRegistry(entries []Entry, rules []KeywordRule) (*Registry, error) {
	if rules == nil {
		rules = DefaultKeywordRules
	}
	r := &Registry{funds: make(map[string]model.Fund, len(entries))}
	for _, e := range entries {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			return nil, errors.New("fund code is required")
		}
		if _, dup := r.funds[code]; dup {
			return nil, fmt.Errorf("duplicate fund code %s", code)
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = code
		}
		var cat model.AssetCategory
		if e.Category != "" {
			c, err := model.ParseAssetCategory(e.Category)
			if err != nil {
				return nil, fmt.Errorf("fund %s: %w", code, err)
			}
			cat = c
		} else {
			cat = ResolveCategory(name, rules)
		}
		r.funds[code] = model.Fund{Code: code, Name: name, Category: cat}
		r.order = append(r.order, code)
	}
	return r, nil
}

// Get looks up a fund by code.
func (r *Registry) Get(code string) (model.Fund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funds[code]
	if !ok {
		return model.Fund{}, fmt.Errorf("%w: %s", ErrUnknownFund, code)
	}
	return f, nil
}

// All returns every fund in configured order.
func (r *Registry) All() []model.Fund {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Fund, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.funds[code])
	}
	return out
}

// ByCategory groups the watchlist by category, codes sorted within each group.
func (r *Registry) ByCategory() map[model.AssetCategory][]model.Fund {
	out := make(map[model.AssetCategory][]model.Fund)
	for _, f := range r.All() {
		out[f.Category] = append(out[f.Category], f)
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	}
	return out
}
