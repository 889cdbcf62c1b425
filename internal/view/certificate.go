package view

import (
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/dom"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
)

// CertificateView appends one certificate into a plain div.
type CertificateView struct {
	*EntityView[*model.Certificate]
}

// NewCertificateView builds the view without rendering it.
func NewCertificateView(certificate *model.Certificate) *CertificateView {
	return &CertificateView{
		EntityView: NewEntityView(certificate, dom.NewElement("div", ""), TemplateCertificate, PolicyAppend),
	}
}
