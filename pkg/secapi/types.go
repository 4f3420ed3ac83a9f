package secapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// SearchRequest is the body of a Form D full-text search.
type SearchRequest struct {
	Query string      `json:"query"`
	From  string      `json:"from"`
	Size  string      `json:"size"`
	Sort  []SortField `json:"sort,omitempty"`
}

// SortField orders results by a single field, e.g. {"filedAt": {"order": "desc"}}.
type SortField map[string]SortOrder

// SortOrder is the direction of a SortField.
type SortOrder struct {
	Order string `json:"order"`
}

// SearchResponse is one page of Form D offerings.
type SearchResponse struct {
	Total     Total      `json:"total"`
	Offerings []Offering `json:"offerings"`
}

// Total is the number of offerings matching the query.
type Total struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// Offering is a single Form D filing.
type Offering struct {
	AccessionNo        string             `json:"accessionNo"`
	FiledAt            string             `json:"filedAt"`
	PrimaryIssuer      Issuer             `json:"primaryIssuer"`
	OfferingData       OfferingData       `json:"offeringData"`
	RelatedPersonsList RelatedPersonsList `json:"relatedPersonsList"`
}

// Issuer describes the company filing the offering.
type Issuer struct {
	CIK               string  `json:"cik"`
	EntityName        string  `json:"entityName"`
	EntityType        string  `json:"entityType"`
	JurisdictionOfInc string  `json:"jurisdictionOfInc"`
	IssuerPhoneNumber string  `json:"issuerPhoneNumber"`
	IssuerAddress     Address `json:"issuerAddress"`
	YearOfInc         YearOf  `json:"yearOfInc"`
}

// Address is an issuer's street address.
type Address struct {
	Street1                   string `json:"street1"`
	Street2                   string `json:"street2"`
	City                      string `json:"city"`
	StateOrCountry            string `json:"stateOrCountry"`
	StateOrCountryDescription string `json:"stateOrCountryDescription"`
	ZipCode                   string `json:"zipCode"`
}

// YearOf holds the year of incorporation when the filer disclosed it.
type YearOf struct {
	Value FlexInt `json:"value"`
}

// OfferingData is the body of the offering.
type OfferingData struct {
	IndustryGroup            IndustryGroup   `json:"industryGroup"`
	TypesOfSecuritiesOffered SecuritiesTypes `json:"typesOfSecuritiesOffered"`
	OfferingSalesAmounts     SalesAmounts    `json:"offeringSalesAmounts"`
	Investors                Investors       `json:"investors"`
}

// IndustryGroup classifies the issuer.
type IndustryGroup struct {
	IndustryGroupType  string   `json:"industryGroupType"`
	InvestmentFundInfo FundInfo `json:"investmentFundInfo"`
}

// FundInfo is present for pooled investment funds.
type FundInfo struct {
	InvestmentFundType string `json:"investmentFundType"`
}

// SecuritiesTypes flags the kinds of securities offered.
type SecuritiesTypes struct {
	IsEquityType               bool   `json:"isEquityType"`
	IsDebtType                 bool   `json:"isDebtType"`
	IsPooledInvestmentFundType bool   `json:"isPooledInvestmentFundType"`
	IsOptionToAcquireType      bool   `json:"isOptionToAcquireType"`
	IsSecurityToBeAcquiredType bool   `json:"isSecurityToBeAcquiredType"`
	IsOtherType                bool   `json:"isOtherType"`
	DescriptionOfOtherType     string `json:"descriptionOfOtherType"`
}

// SalesAmounts reports offering size. -1 means indefinite.
type SalesAmounts struct {
	TotalOfferingAmount FlexInt `json:"totalOfferingAmount"`
	TotalAmountSold     FlexInt `json:"totalAmountSold"`
}

// Investors counts the investors already in the offering.
type Investors struct {
	TotalNumberAlreadyInvested FlexInt `json:"totalNumberAlreadyInvested"`
}

// RelatedPersonsList holds executives, directors and promoters.
type RelatedPersonsList struct {
	RelatedPersonInfo []RelatedPerson `json:"relatedPersonInfo"`
}

// RelatedPerson is one named person on the filing.
type RelatedPerson struct {
	RelatedPersonName             PersonName   `json:"relatedPersonName"`
	RelatedPersonRelationshipList Relationship `json:"relatedPersonRelationshipList"`
}

// PersonName is a related person's name parts.
type PersonName struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
}

// Relationship lists a person's roles ("Executive Officer", "Director").
type Relationship struct {
	Relationship StringList `json:"relationship"`
}

// FlexInt decodes an integer sent as a JSON number or numeric string.
// Valid is false for null, missing, empty or non-numeric values.
type FlexInt struct {
	Value int64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	*f = FlexInt{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return eris.Wrap(err, "secapi: decode numeric string")
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}
	if s == "" {
		return nil
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = FlexInt{Value: v, Valid: true}
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexInt{Value: int64(v), Valid: true}
	}
	return nil
}

// Ptr returns the value, or nil when it is missing.
func (f FlexInt) Ptr() *int64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// StringList decodes either a single string or an array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return eris.Wrap(err, "secapi: decode string")
		}
		*l = StringList{s}
		return nil
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return eris.Wrap(err, "secapi: decode string list")
	}
	*l = out
	return nil
}
