package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// createTestDOCX creates a minimal DOCX package in memory.
func createTestDOCX(documentXML, coreXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	if coreXML != "" {
		core, _ := w.Create("docProps/core.xml")
		core.Write([]byte(coreXML))
	}

	w.Close()
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Termination clause:</w:t></w:r><w:r><w:t xml:space="preserve"> either party may terminate</w:t></w:r></w:p>
<w:p><w:r><w:t>with 30 days written notice.</w:t></w:r></w:p>
</w:body>
</w:document>`

const sampleCoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Service Agreement</dc:title>
</cp:coreProperties>`

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func TestSupportedKinds(t *testing.T) {
	assert.Equal(t, []domain.FileKind{domain.FileKindDOCX}, New().SupportedKinds())
}

func TestNormalise_ExtractsParagraphs(t *testing.T) {
	content := createTestDOCX(sampleDocumentXML, sampleCoreXML)

	res, err := New().Normalise(context.Background(), content)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "Termination clause: either party may terminate")
	assert.Contains(t, res.Text, "with 30 days written notice.")
	assert.Equal(t, "Service Agreement", res.Title)
	assert.Equal(t, "docx", res.Metadata["format"])
}

func TestNormalise_NotZip(t *testing.T) {
	_, err := New().Normalise(context.Background(), []byte("plain text, not a zip"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestNormalise_MissingDocumentXML(t *testing.T) {
	_, err := New().Normalise(context.Background(), createTestDOCX("", sampleCoreXML))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestParseDocumentXML_Invalid(t *testing.T) {
	assert.Equal(t, "", parseDocumentXML([]byte("<not-closed")))
}

func TestNew_UniofficeIsOptIn(t *testing.T) {
	assert.False(t, New().unioffice)
	assert.True(t, New(WithUnioffice()).unioffice)
}

func TestNormalise_UniofficeFallsBackToXML(t *testing.T) {
	content := createTestDOCX(sampleDocumentXML, sampleCoreXML)

	// Without an activated license unioffice refuses the package and the
	// XML reader takes over.
	res, err := New(WithUnioffice()).Normalise(context.Background(), content)
	require.NoError(t, err)

	assert.Contains(t, res.Text, "with 30 days written notice.")
}
