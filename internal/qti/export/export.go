package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
)

const qtiNamespace = "http://www.imsglobal.org/xsd/imsqti_v2p1"

// BuildPackage writes a QTI 2.1 content package: an imsmanifest.xml plus
// one single-choice item per question.
func BuildPackage(e exam.Exam) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	mf := imsManifest{Identifier: "exam-" + e.ID, Title: e.Title}
	for i, q := range e.Questions {
		id := fmt.Sprintf("q%03d", i+1)
		href := id + ".xml"
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: id,
			Type:       "imsqti_item_xmlv2p1",
			Href:       href,
			Files:      []imsFile{{Href: href}},
		})
		if err := writeXML(zw, href, buildItem(id, q)); err != nil {
			return nil, err
		}
	}
	if err := writeXML(zw, "imsmanifest.xml", mf); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXML(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// --- mini XML model (export only) ---

type imsManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Identifier string        `xml:"identifier,attr"`
	Title      string        `xml:"metadata>title,omitempty"`
	Resources  []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

type assessmentItem struct {
	XMLName     xml.Name            `xml:"assessmentItem"`
	Xmlns       string              `xml:"xmlns,attr"`
	Identifier  string              `xml:"identifier,attr"`
	Title       string              `xml:"title,attr"`
	Adaptive    bool                `xml:"adaptive,attr"`
	TimeDep     bool                `xml:"timeDependent,attr"`
	Response    responseDeclaration `xml:"responseDeclaration"`
	Interaction choiceInteraction   `xml:"itemBody>choiceInteraction"`
}

type responseDeclaration struct {
	Identifier  string `xml:"identifier,attr"`
	Cardinality string `xml:"cardinality,attr"`
	BaseType    string `xml:"baseType,attr"`
	Correct     string `xml:"correctResponse>value"`
}

type choiceInteraction struct {
	ResponseIdentifier string         `xml:"responseIdentifier,attr"`
	Shuffle            bool           `xml:"shuffle,attr"`
	MaxChoices         int            `xml:"maxChoices,attr"`
	Prompt             string         `xml:"prompt"`
	Choices            []simpleChoice `xml:"simpleChoice"`
}

type simpleChoice struct {
	Identifier string `xml:"identifier,attr"`
	Text       string `xml:",chardata"`
}

// buildItem maps a question to a single-choice item. Option identifiers are
// the answer labels (A-D, V/F) so the correct response reads like the key.
func buildItem(id string, q extract.Question) assessmentItem {
	var choices []simpleChoice
	if q.Type == extract.TrueFalse {
		choices = []simpleChoice{{Identifier: "V", Text: "Verdadero"}, {Identifier: "F", Text: "Falso"}}
	} else {
		for i, o := range q.Options {
			choices = append(choices, simpleChoice{Identifier: string(rune('A' + i)), Text: o})
		}
	}
	return assessmentItem{
		Xmlns:      qtiNamespace,
		Identifier: id,
		Title:      q.Statement,
		Response: responseDeclaration{
			Identifier:  "RESPONSE",
			Cardinality: "single",
			BaseType:    "identifier",
			Correct:     q.AnswerLabel(),
		},
		Interaction: choiceInteraction{
			ResponseIdentifier: "RESPONSE",
			MaxChoices:         1,
			Prompt:             q.Statement,
			Choices:            choices,
		},
	}
}
