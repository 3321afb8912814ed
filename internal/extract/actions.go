// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/cockroachdb/errors"

	"github.com/pdiddy/rifsite/internal/feed"
	"github.com/pdiddy/rifsite/internal/render"
	"github.com/pdiddy/rifsite/internal/rules"
)

// handler renders the rows for one rule entry. xpath has already had the
// primary type substituted and the namespace prefix applied.
type handler func(e *Engine, s *subject, label, xpath string) (string, error)

func actionHandlers() map[rules.Action]handler {
	return map[rules.Action]handler{
		rules.ActionAttrAndElementValues:     attrAndElementValues,
		rules.ActionAttrNamesAndValues:       attrNamesAndValues,
		rules.ActionAttrValuesAndChildValues: attrValuesAndChildValues,
		rules.ActionRelatedObject:            relatedObject,
		rules.ActionRelatedInfo:              relatedInfo,
		rules.ActionRepoName:                 repoName,
		rules.ActionRepoObjectID:             repoObjectID,
		rules.ActionRDAURL:                   rdaURL,
		rules.ActionRegistryURL:              registryURL,
		rules.ActionHeaderStatus:             headerStatus,
		rules.ActionHeaderLocalDatestamp:     headerLocalDatestamp,
	}
}

func attrAndElementValues(e *Engine, s *subject, label, xpath string) (string, error) {
	nodes, err := s.query(xpath)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range nodes {
		vals := attrValues(n)
		sort.Strings(vals)
		b.WriteString(render.Row([]render.Cell{
			render.Markup(label), render.Text(strings.Join(vals, ",")), render.Text(ownText(n)),
		}, e.highlight[label]))
	}
	return b.String(), nil
}

func attrNamesAndValues(_ *Engine, s *subject, label, xpath string) (string, error) {
	nodes, err := s.query(xpath)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(render.Row([]render.Cell{
			render.Markup(label),
			render.Text(strings.Join(attrNames(n), ",")),
			render.Text(strings.Join(attrValues(n), ",")),
		}, false))
	}
	return b.String(), nil
}

func attrValuesAndChildValues(_ *Engine, s *subject, label, xpath string) (string, error) {
	nodes, err := s.query(xpath)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range nodes {
		var children []string
		for _, c := range childElements(n) {
			children = append(children, ownText(c))
		}
		b.WriteString(render.Row([]render.Cell{
			render.Markup(label),
			render.Text(strings.Join(attrValues(n), ",")),
			render.Text(strings.Join(children, ",")),
		}, false))
	}
	return b.String(), nil
}

// relatedObject renders <relatedObject><key/><relation type><description/></relation></relatedObject>.
func relatedObject(_ *Engine, s *subject, label, xpath string) (string, error) {
	nodes, err := s.query(xpath)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range nodes {
		var key, relType, desc string
		for _, c := range childElements(n) {
			switch c.Data {
			case "key":
				key = ownText(c)
			case "relation":
				relType = c.SelectAttr("type")
				for _, d := range childElements(c) {
					if d.Data == "description" {
						desc = ownText(d)
					}
				}
			}
		}
		aux := relType
		if desc != "" {
			aux = relType + " (" + desc + ")"
		}
		b.WriteString(render.Row([]render.Cell{render.Markup(label), render.Text(aux), render.Text(key)}, false))
	}
	return b.String(), nil
}

// relatedInfo renders a header row for each <relatedInfo> then one row for
// each of its title, identifier and notes that is present.
func relatedInfo(_ *Engine, s *subject, label, xpath string) (string, error) {
	nodes, err := s.query(xpath)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range nodes {
		fields := map[string]string{}
		var idType string
		for _, c := range childElements(n) {
			fields[c.Data] = ownText(c)
			if c.Data == "identifier" {
				idType = c.SelectAttr("type")
			}
		}
		b.WriteString(render.Row([]render.Cell{
			render.Markup(label), render.Text(strings.Join(attrValues(n), ",")), render.Text(""),
		}, false))
		if v, ok := fields["title"]; ok {
			b.WriteString(detailRow("Title", v))
		}
		if v, ok := fields["identifier"]; ok {
			b.WriteString(detailRow("Identifier ("+idType+")", v))
		}
		if v, ok := fields["notes"]; ok {
			b.WriteString(detailRow("Notes", v))
		}
	}
	return b.String(), nil
}

func detailRow(aux, value string) string {
	return render.Row([]render.Cell{render.Text(""), render.Text(aux), render.Text(value)}, false)
}

func repoName(e *Engine, _ *subject, label, _ string) (string, error) {
	return infoRow(label, e.cfg.Profile.Repository()), nil
}

func repoObjectID(e *Engine, s *subject, label, _ string) (string, error) {
	id, err := e.objectID(s)
	if err != nil && !errors.Is(err, ErrUnresolved) {
		return "", err
	}
	return infoRow(label, id), nil
}

func rdaURL(e *Engine, s *subject, label, xpath string) (string, error) {
	return deepLink(s, label, xpath, e.cfg.Render.RDAURLPrefix, e.cfg.Render.RDAURLSuffix)
}

func registryURL(e *Engine, s *subject, label, xpath string) (string, error) {
	return deepLink(s, label, xpath, e.cfg.Render.RegistryURLPrefix, e.cfg.Render.RegistryURLSuffix)
}

// deepLink escapes the last text found at xpath into a ?key= query on
// prefix. With no text the bare prefix is shown.
func deepLink(s *subject, label, xpath, prefix, suffix string) (string, error) {
	text, found, err := s.lastText(xpath)
	if err != nil {
		return "", err
	}
	link := prefix
	if found {
		link = prefix + "?key=" + url.QueryEscape(text) + suffix
	}
	return infoRow(label, link), nil
}

// headerStatus ignores xpath; the status lives on the OAI header.
func headerStatus(_ *Engine, s *subject, label, _ string) (string, error) {
	nodes, err := s.query("header[@status]")
	if err != nil || len(nodes) == 0 {
		return "", err
	}
	return infoRow(label, nodes[0].SelectAttr("status")), nil
}

func headerLocalDatestamp(e *Engine, s *subject, label, xpath string) (string, error) {
	text, _, err := s.lastText(xpath)
	if err != nil {
		return "", err
	}
	return infoRow(label, LocalDatestamp(text, e.loc)), nil
}

func infoRow(label, value string) string {
	return render.Row([]render.Cell{render.Markup(label), render.Text(""), render.Text(value)}, false)
}

// LocalDatestamp converts a UTC datestamp to loc for display, e.g.
// "2013-01-30 17:38:57 ACDT(+10:30)". Malformed input gives "".
func LocalDatestamp(datestamp string, loc *time.Location) string {
	t, _, err := feed.ParseDatestamp(strings.TrimSpace(datestamp))
	if err != nil {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return t.Format("2006-01-02 15:04:05 MST") + "(" + t.Format("-07:00") + ")"
}

// ownText joins the node's own text children, trimmed. Text of nested
// elements is excluded.
func ownText(n *xmlquery.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

func childElements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// isNamespaceDecl reports xmlns and xmlns:* attributes, which are not
// record data.
func isNamespaceDecl(a xmlquery.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

func attrNames(n *xmlquery.Node) []string {
	var out []string
	for _, a := range n.Attr {
		if isNamespaceDecl(a) {
			continue
		}
		name := a.Name.Local
		if a.Name.Space != "" {
			name = a.Name.Space + ":" + name
		}
		out = append(out, name)
	}
	return out
}

func attrValues(n *xmlquery.Node) []string {
	var out []string
	for _, a := range n.Attr {
		if !isNamespaceDecl(a) {
			out = append(out, a.Value)
		}
	}
	return out
}
