package invenio

// Metadata is the deposition metadata understood by the Invenio legacy
// deposit API (https://developers.zenodo.org/#representation).
type Metadata struct {
	UploadType      string      `json:"upload_type"`
	PublicationDate string      `json:"publication_date"`
	Title           string      `json:"title"`
	Creators        []Creator   `json:"creators"`
	Description     string      `json:"description,omitempty"`
	AccessRight     string      `json:"access_right"`
	License         string      `json:"license,omitempty"`
	PrereserveDOI   bool        `json:"prereserve_doi"`
	Keywords        []string    `json:"keywords,omitempty"`
	Communities     []Community `json:"communities,omitempty"`
	Version         string      `json:"version,omitempty"`
}

// Creator is an author of the deposited software. Name is "family, given"
// when both parts are known.
type Creator struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

// Community is a community the record is submitted to.
type Community struct {
	Identifier string `json:"identifier"`
}

// Record is a published record.
type Record struct {
	ID    int64  `json:"id"`
	DOI   string `json:"doi,omitempty"`
	Links struct {
		HTML       string `json:"html,omitempty"`
		RecordHTML string `json:"record_html,omitempty"`
		DOI        string `json:"doi,omitempty"`
	} `json:"links"`
}

// deposition is the response to creating a deposition.
type deposition struct {
	ID    int64 `json:"id"`
	Links struct {
		HTML    string `json:"html"`
		Bucket  string `json:"bucket"`
		Publish string `json:"publish"`
	} `json:"links"`
}
