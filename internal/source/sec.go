package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
	"github.com/sells-group/funding-cli/pkg/secapi"
)

const (
	defaultPageSize     = 50
	defaultLookbackDays = 30
	maxExecutives       = 5
)

// SECOptions configures SECSource.
type SECOptions struct {
	PageSize     int
	LookbackDays int
	// Delay is the minimum spacing between page requests.
	Delay time.Duration
	Retry resilience.RetryConfig
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// SECSource pages through Form D filings filed within the lookback window.
type SECSource struct {
	client  secapi.Client
	opts    SECOptions
	limiter *rate.Limiter
}

// NewSECSource creates a Form D source.
func NewSECSource(client secapi.Client, opts SECOptions) *SECSource {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = defaultLookbackDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("secapi", "search_form_d")
	}
	return &SECSource{client: client, opts: opts, limiter: newLimiter(opts.Delay)}
}

// Name implements Source.
func (s *SECSource) Name() string { return model.SourceSECFormD }

// Fetch pages newest-first until an empty page arrives or every matching
// offering has been seen. A page that still fails after retries ends paging;
// offerings fetched before it are kept and the error is returned only when
// nothing was fetched.
func (s *SECSource) Fetch(ctx context.Context) ([]model.Company, error) {
	since := s.opts.Now().AddDate(0, 0, -s.opts.LookbackDays)

	var companies []model.Company
	fetched := 0
	for offset := 0; ; offset += s.opts.PageSize {
		if err := s.limiter.Wait(ctx); err != nil {
			return companies, eris.Wrap(err, "source: sec rate limit")
		}

		req := secapi.FiledSince(since, offset, s.opts.PageSize)
		page, err := resilience.DoVal(ctx, s.opts.Retry, func(ctx context.Context) (*secapi.SearchResponse, error) {
			return s.client.SearchFormD(ctx, req)
		})
		if err != nil {
			if fetched == 0 {
				return nil, eris.Wrap(err, "source: sec search")
			}
			zap.L().Warn("source: sec paging stopped early",
				zap.Int("fetched", fetched),
				zap.Error(err),
			)
			break
		}

		if len(page.Offerings) == 0 {
			break
		}

		for _, o := range page.Offerings {
			if c, ok := NormalizeOffering(o); ok {
				companies = append(companies, c)
			}
		}
		fetched += len(page.Offerings)

		zap.L().Info("source: sec page",
			zap.Int("fetched", fetched),
			zap.Int("total", page.Total.Value),
		)

		if fetched >= page.Total.Value {
			break
		}
	}

	return companies, nil
}

// NormalizeOffering maps a Form D offering to a company record. Offerings
// without an entity name are dropped.
func NormalizeOffering(o secapi.Offering) (model.Company, bool) {
	issuer := o.PrimaryIssuer
	name := strings.TrimSpace(issuer.EntityName)
	if name == "" {
		return model.Company{}, false
	}

	data := o.OfferingData
	executives := executivesOf(o.RelatedPersonsList.RelatedPersonInfo)

	c := model.Company{
		Name:             name,
		FundingAmount:    amountOf(data.OfferingSalesAmounts.TotalOfferingAmount),
		AmountSold:       amountOf(data.OfferingSalesAmounts.TotalAmountSold),
		FundingRound:     roundOf(data.TypesOfSecuritiesOffered),
		Investors:        []string{},
		Industry:         industryOf(data.IndustryGroup),
		Location:         locationOf(issuer.IssuerAddress),
		Source:           model.SourceSECFormD,
		AnnouncementDate: firstN(o.FiledAt, 10),
		Description:      fmt.Sprintf("%s incorporated in %s", issuer.EntityType, issuer.JurisdictionOfInc),
		Executives:       executives,
		Phone:            issuer.IssuerPhoneNumber,
		SECFilingURL:     filingURL(o.AccessionNo, issuer.CIK),
		TotalInvestors:   int(data.Investors.TotalNumberAlreadyInvested.Value),
	}
	if len(executives) > 0 {
		c.CEOName = executives[0]
	}
	if y := issuer.YearOfInc.Value; y.Valid && y.Value > 0 {
		c.FoundingYear = model.Int(int(y.Value))
	}
	return c, true
}

// amountOf treats -1 (indefinite) and missing values as absent.
func amountOf(f secapi.FlexInt) *int64 {
	if !f.Valid || f.Value == -1 {
		return nil
	}
	return f.Ptr()
}

func roundOf(s secapi.SecuritiesTypes) string {
	var types []string
	if s.IsEquityType {
		types = append(types, "Equity")
	}
	if s.IsDebtType {
		types = append(types, "Debt")
	}
	if s.IsPooledInvestmentFundType {
		types = append(types, "Pooled Investment Fund")
	}
	if s.IsOptionToAcquireType {
		types = append(types, "Options")
	}
	if s.IsSecurityToBeAcquiredType {
		types = append(types, "Security to be Acquired")
	}
	if s.IsOtherType {
		desc := s.DescriptionOfOtherType
		if desc == "" {
			desc = "Other"
		}
		types = append(types, desc)
	}
	if len(types) == 0 {
		return model.RoundUnknown
	}
	return strings.Join(types, ", ")
}

func industryOf(g secapi.IndustryGroup) string {
	if ft := g.InvestmentFundInfo.InvestmentFundType; ft != "" {
		return g.IndustryGroupType + " - " + ft
	}
	return g.IndustryGroupType
}

func locationOf(a secapi.Address) string {
	return joinNonEmpty(", ", a.Street1, a.Street2, a.City, a.StateOrCountryDescription, a.ZipCode)
}

// executivesOf formats up to five related persons as "Full Name - Role".
func executivesOf(people []secapi.RelatedPerson) []string {
	out := []string{}
	for i, p := range people {
		if i == maxExecutives {
			break
		}
		n := p.RelatedPersonName
		full := joinNonEmpty(" ", n.FirstName, n.MiddleName, n.LastName)
		if full == "" {
			continue
		}
		if roles := p.RelatedPersonRelationshipList.Relationship; len(roles) > 0 && roles[0] != "" {
			full += " - " + roles[0]
		}
		out = append(out, full)
	}
	return out
}

func filingURL(accessionNo, cik string) string {
	cik = strings.TrimLeft(cik, "0")
	if accessionNo == "" || cik == "" {
		return ""
	}
	return "https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&CIK=" + cik +
		"&type=D&dateb=&owner=include&count=40"
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
