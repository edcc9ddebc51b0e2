package provider

import "context"

// FaceProvider define a interface para provedores de reconhecimento facial
type FaceProvider interface {
	// DetectFaces detecta faces na imagem e retorna informações sobre cada uma
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)

	// CompareFaces compara a face principal de duas imagens.
	// Similarity vai de 0.0 (diferentes) a 1.0 (idênticas)
	CompareFaces(ctx context.Context, source, target []byte) (*Comparison, error)

	// ValidateImage verifica se a imagem é utilizável pelo provider
	ValidateImage(image []byte) error

	Name() string
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox  BoundingBox `json:"bounding_box"`
	Confidence   float64     `json:"confidence"`
	QualityScore float64     `json:"quality_score"`
	Landmarks    []Landmark  `json:"landmarks,omitempty"`
	Pose         *Pose       `json:"pose,omitempty"`
}

// Landmark is a named facial point, normalized to the image size
type Landmark struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Pose represents face orientation angles
type Pose struct {
	Pitch float64 `json:"pitch"` // up/down rotation
	Roll  float64 `json:"roll"`  // tilted rotation
	Yaw   float64 `json:"yaw"`   // left/right rotation
}

// BoundingBox represents the face area in the image
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Comparison is the raw engine answer; thresholding happens in the service
type Comparison struct {
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"confidence"`
}
