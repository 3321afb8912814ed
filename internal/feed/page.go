// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/cockroachdb/errors"

	"github.com/pdiddy/rifsite/pkg/types"
)

// Paths into an OAI-PMH ListRecords response. Protocol elements are never
// namespace-prefixed.
const (
	xpathRecords         = "OAI-PMH/ListRecords/record"
	xpathResumptionToken = "OAI-PMH/ListRecords/resumptionToken"
	xpathError           = "OAI-PMH/error"
)

// codeNoRecordsMatch is the OAI error code for an empty result set.
const codeNoRecordsMatch = "noRecordsMatch"

// ErrMalformedPage is returned when a response body is not XML.
var ErrMalformedPage = errors.New("response is not an XML document")

// OAIError is an <error> element returned in place of ListRecords.
type OAIError struct {
	Code    string
	Message string
}

func (e *OAIError) Error() string {
	return fmt.Sprintf("OAI-PMH error %s: %s", e.Code, e.Message)
}

// Page is one fetched ListRecords response.
type Page struct {
	// Number is 1 for the first page fetched.
	Number int
	URL    string
	Body   []byte
	Doc    *xmlquery.Node

	// Token is the resumption token for the next request. Last is true
	// when the token was missing or empty.
	Token string
	Last  bool
}

// Record is one entry on a page the extraction engine can render.
type Record struct {
	// Page is the Number of the page the record came from. Index counts
	// records across that page in processing order, from 1; a harvest
	// renumbers it across the whole run.
	Page  int
	Index int

	PrimaryType string
	Subtype     string
	Deleted     bool

	// Node is the XPath context: the <metadata> element of a live record,
	// or the <record> element of a deleted one.
	Node *xmlquery.Node
}

// Kind returns the "primaryType,subtype" dispatch key.
func (r Record) Kind() string { return r.PrimaryType + "," + r.Subtype }

// parsePage decodes body and reads its continuation state.
func parsePage(number int, rawURL string, body []byte) (*Page, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedPage, "page %d from %s: %v", number, rawURL, err)
	}
	p := &Page{Number: number, URL: rawURL, Body: body, Doc: doc}

	if e := xmlquery.FindOne(doc, xpathError); e != nil {
		code := e.SelectAttr("code")
		if code != codeNoRecordsMatch {
			return nil, &OAIError{Code: code, Message: strings.TrimSpace(e.InnerText())}
		}
		p.Last = true
		return p, nil
	}

	if t := xmlquery.FindOne(doc, xpathResumptionToken); t != nil {
		p.Token = strings.TrimSpace(t.InnerText())
	}
	p.Last = p.Token == ""
	return p, nil
}

// Records returns the live RIF-CS records on the page in document order,
// followed by records whose OAI header has status="deleted". nsPrefix
// qualifies RIF-CS element names, e.g. "rif:".
func (p *Page) Records(nsPrefix string) ([]Record, error) {
	var out []Record

	groups, err := xmlquery.QueryAll(p.Doc, xpathRecords+"/metadata/"+nsPrefix+"registryObjects")
	if err != nil {
		return nil, errors.Wrapf(err, "namespace prefix %q", nsPrefix)
	}
	for _, g := range groups {
		objs, err := xmlquery.QueryAll(g, nsPrefix+"registryObject/*")
		if err != nil {
			return nil, errors.Wrapf(err, "namespace prefix %q", nsPrefix)
		}
		for _, o := range objs {
			if !types.IsPrimaryType(o.Data) {
				continue
			}
			out = append(out, Record{
				Page:        p.Number,
				Index:       len(out) + 1,
				PrimaryType: o.Data,
				Subtype:     o.SelectAttr("type"),
				Node:        g.Parent,
			})
		}
	}

	for _, rec := range xmlquery.Find(p.Doc, xpathRecords) {
		h := xmlquery.FindOne(rec, "header")
		if h == nil || h.SelectAttr("status") != "deleted" {
			continue
		}
		out = append(out, Record{
			Page:        p.Number,
			Index:       len(out) + 1,
			PrimaryType: types.TypeAny,
			Subtype:     types.SubtypeDeleted,
			Deleted:     true,
			Node:        rec,
		})
	}
	return out, nil
}
