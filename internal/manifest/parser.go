package manifest

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/helm-preview/helm-preview/internal/model"
)

// DefaultNamespace is used when neither the caller nor the document names a namespace.
const DefaultNamespace = "default"

// Parse splits multi-document YAML into resources, in document order.
// Empty documents, documents that fail to parse, non-mapping documents and
// documents without apiVersion or kind are skipped.
func Parse(text, defaultNamespace string) []*model.Resource {
	var resources []*model.Resource

	for i, doc := range SplitDocuments(text) {
		raw := strings.TrimSpace(doc)
		if raw == "" {
			continue
		}

		body, err := decodeDocument(raw)
		if err != nil {
			klog.V(4).Infof("Skipping document %d: %v", i, err)
			continue
		}

		obj := &unstructured.Unstructured{Object: body}
		if obj.GetAPIVersion() == "" || obj.GetKind() == "" {
			klog.V(4).Infof("Skipping document %d: missing apiVersion or kind", i)
			continue
		}

		namespace, found, err := unstructured.NestedString(body, "metadata", "namespace")
		if !found || err != nil {
			namespace = defaultNamespace
		}

		resources = append(resources, &model.Resource{
			APIVersion: obj.GetAPIVersion(),
			Kind:       obj.GetKind(),
			Namespace:  namespace,
			Name:       obj.GetName(),
			Body:       body,
			Raw:        raw,
		})
	}

	return resources
}

// SplitDocuments splits text on lines consisting solely of "---".
// A "---" inside a value is never treated as a separator.
func SplitDocuments(text string) []string {
	var docs []string
	var current strings.Builder

	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.TrimRight(line, " \t\r\n") == "---" {
			if current.Len() > 0 {
				docs = append(docs, current.String())
				current.Reset()
			}
			continue
		}
		current.WriteString(line)
	}

	if current.Len() > 0 {
		docs = append(docs, current.String())
	}

	return docs
}

// decodeDocument converts one YAML document into a JSON-compatible map.
// Integers are kept as int64, other numbers become float64.
func decodeDocument(doc string) (map[string]interface{}, error) {
	data, err := yaml.YAMLToJSON([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}

	var obj interface{}
	if err := utiljson.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	body, ok := obj.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("document is %T, not a mapping", obj)
	}

	return body, nil
}
