package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img      string `json:"img"`      // base64 encoded image
	Model    string `json:"model"`    // "Facenet512", "VGG-Face", etc
	Detector string `json:"detector"` // "retinaface", "mtcnn", etc
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence *float64   `json:"face_confidence,omitempty"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// VerifyRequest for POST /verify
type VerifyRequest struct {
	Img1           string `json:"img1"`
	Img2           string `json:"img2"`
	Model          string `json:"model_name"`
	Detector       string `json:"detector_backend"`
	DistanceMetric string `json:"distance_metric"`
}

// VerifyResponse from POST /verify. Distance is below Threshold when
// DeepFace considers the faces the same person.
type VerifyResponse struct {
	Verified         bool        `json:"verified"`
	Distance         float64     `json:"distance"`
	Threshold        float64     `json:"threshold"`
	Model            string      `json:"model"`
	SimilarityMetric string      `json:"similarity_metric"`
	FacialAreas      FacialAreas `json:"facial_areas"`
}

type FacialAreas struct {
	Img1 FacialArea `json:"img1"`
	Img2 FacialArea `json:"img2"`
}
