package entities

import "fmt"

// UniiCandidate is one match returned by the UNII lookup for a substance
// name. Candidates come straight from the FDA records file; resource URLs are
// derived when a candidate is promoted to UniiInfo.
type UniiCandidate struct {
	UniiCode      string
	PreferredTerm string
	DisplayName   string
	CasRN         string
	SubstanceType string
	PubchemCID    string
	CompToxID     string
}

// UniiInfo is the enrichment record attached to a substance. Each substance
// owns its UniiInfo exclusively; two substances resolving to the same code
// still get separate copies.
type UniiInfo struct {
	UniiCode           string `json:"unii_code"`
	PreferredTerm      string `json:"preferred_term,omitempty"`
	CasRN              string `json:"cas_rn,omitempty"`
	SubstanceType      string `json:"substance_type,omitempty"`
	ResourceURL        string `json:"resource_url"`
	GsrsRecordURL      string `json:"gsrs_record_url,omitempty"`
	NcatsURL           string `json:"ncats_url,omitempty"`
	CommonChemistryURL string `json:"common_chemistry_url,omitempty"`
	PubchemURL         string `json:"pubchem_url,omitempty"`
	CompToxURL         string `json:"comptox_url,omitempty"`
}

// Info builds a fresh UniiInfo for the candidate, deriving the external
// resource URLs from its identifiers. A new value is returned on every call
// so records never share enrichment data.
func (c UniiCandidate) Info() *UniiInfo {
	info := &UniiInfo{
		UniiCode:      c.UniiCode,
		PreferredTerm: c.PreferredTerm,
		CasRN:         c.CasRN,
		SubstanceType: c.SubstanceType,
		ResourceURL:   fmt.Sprintf("https://precision.fda.gov/uniisearch/srs/unii/%s", c.UniiCode),
		GsrsRecordURL: fmt.Sprintf("https://precision.fda.gov/ginas/app/ui/substances/%s", c.UniiCode),
		NcatsURL:      fmt.Sprintf("https://drugs.ncats.io/substance/%s", c.UniiCode),
	}
	if c.CasRN != "" {
		info.CommonChemistryURL = fmt.Sprintf("https://commonchemistry.cas.org/detail?cas_rn=%s", c.CasRN)
	}
	if c.PubchemCID != "" {
		info.PubchemURL = fmt.Sprintf("https://pubchem.ncbi.nlm.nih.gov/compound/%s", c.PubchemCID)
	}
	if c.CompToxID != "" {
		info.CompToxURL = fmt.Sprintf("https://comptox.epa.gov/dashboard/chemical/details/%s", c.CompToxID)
	}
	return info
}
