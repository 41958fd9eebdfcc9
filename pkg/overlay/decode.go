// Copyright (c) 2025, Drydock Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package overlay

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	k8syaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/kubernetes/scheme"
)

// decodeObject decodes a rendered YAML document into a typed object from the
// client-go scheme. Kinds the scheme does not know (CRDs such as the optional
// metrics descriptor) fall back to unstructured so they still carry their
// group/version/kind for discovery-based handling.
func decodeObject(raw []byte) (runtime.Object, *schema.GroupVersionKind, error) {
	jsonBytes, err := k8syaml.ToJSON(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to convert document to JSON: %w", err)
	}

	obj, gvk, err := scheme.Codecs.UniversalDeserializer().Decode(jsonBytes, nil, nil)
	if err == nil {
		return obj, gvk, nil
	}
	if !runtime.IsNotRegisteredError(err) {
		return nil, nil, fmt.Errorf("failed to decode document: %w", err)
	}

	u := &unstructured.Unstructured{}
	if err := u.UnmarshalJSON(jsonBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to decode document as unstructured: %w", err)
	}
	ugvk := u.GroupVersionKind()
	return u, &ugvk, nil
}
