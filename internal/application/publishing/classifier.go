package publishing

import (
	"github.com/crosspost/backend/internal/domain/classification"
)

// TaxonomyClassifier adapts the taxonomy classifier to what the orchestrator
// needs on submit: a category path, or the knowledge that nothing matched
type TaxonomyClassifier struct {
	classifier *classification.Classifier
}

func NewTaxonomyClassifier(c *classification.Classifier) *TaxonomyClassifier {
	return &TaxonomyClassifier{classifier: c}
}

func (t *TaxonomyClassifier) Classify(title, description string) Result {
	res := t.classifier.Classify(title, description)
	if !res.Matched() {
		return Result{}
	}
	cat, ok := classification.CategoryByID(res.Primary.CategoryID)
	if !ok {
		return Result{}
	}
	return Result{CategoryPath: cat.Path, Matched: true}
}

var _ Classifier = (*TaxonomyClassifier)(nil)
