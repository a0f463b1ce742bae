package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDocumentType(t *testing.T) {
	assert.True(t, ValidDocumentType(DocumentAadhaar))
	assert.True(t, ValidDocumentType(DocumentOther))
	assert.False(t, ValidDocumentType("driving_license"))
}

func TestIsMandatory(t *testing.T) {
	assert.True(t, IsMandatory(DocumentPAN))
	assert.False(t, IsMandatory(DocumentOther))
}

func TestMissingMandatoryTypes(t *testing.T) {
	t.Run("empty ledger misses everything", func(t *testing.T) {
		missing := MissingMandatoryTypes(nil)
		assert.Len(t, missing, len(MandatoryDocumentTypes))
	})

	t.Run("other documents do not fill mandatory slots", func(t *testing.T) {
		docs := []Document{
			{Type: DocumentAadhaar, FileURL: "https://docs/a.pdf"},
			{Type: DocumentPAN, FileURL: "https://docs/p.pdf"},
			{Type: DocumentOther, FileURL: "https://docs/o.pdf"},
		}
		missing := MissingMandatoryTypes(docs)
		assert.ElementsMatch(t, []DocumentType{DocumentPassbook, DocumentCertificate}, missing)
	})

	t.Run("all slots filled", func(t *testing.T) {
		docs := []Document{
			{Type: DocumentAadhaar, FileURL: "u"},
			{Type: DocumentPAN, FileURL: "u"},
			{Type: DocumentPassbook, FileURL: "u"},
			{Type: DocumentCertificate, FileURL: "u"},
		}
		assert.Empty(t, MissingMandatoryTypes(docs))
	})
}

func TestAnyRejected(t *testing.T) {
	docs := []Document{
		{Type: DocumentAadhaar, Status: DocumentApproved},
		{Type: DocumentPAN, Status: DocumentPending},
	}
	assert.False(t, AnyRejected(docs))

	docs[1].Status = DocumentRejected
	assert.True(t, AnyRejected(docs))
}
