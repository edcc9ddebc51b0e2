package mock

import (
	"context"
	"crypto/sha256"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider"
)

const minImageSize = 1000

// Provider implementa provider.FaceProvider para testes e desenvolvimento.
// Os resultados são determinísticos: derivados do hash de cada imagem.
type Provider struct{}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "mock"
}

// DetectFaces simula detecção de uma face centralizada
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}

	hash := sha256.Sum256(image)
	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{
				X:      0.2 + unit(hash[0])*0.1,
				Y:      0.15 + unit(hash[1])*0.1,
				Width:  0.4 + unit(hash[2])*0.2,
				Height: 0.5 + unit(hash[3])*0.2,
			},
			Confidence:   0.85 + unit(hash[4])*0.14,
			QualityScore: 0.75 + unit(hash[5])*0.24,
			Landmarks: []provider.Landmark{
				{Type: "eyeLeft", X: 0.35, Y: 0.4},
				{Type: "eyeRight", X: 0.65, Y: 0.4},
				{Type: "nose", X: 0.5, Y: 0.55},
				{Type: "mouthLeft", X: 0.42, Y: 0.75},
				{Type: "mouthRight", X: 0.58, Y: 0.75},
			},
			Pose: &provider.Pose{
				Roll:  -5 + unit(hash[6])*10,
				Yaw:   -10 + unit(hash[7])*20,
				Pitch: -8 + unit(hash[8])*16,
			},
		},
	}, nil
}

// CompareFaces devolve similaridade 1.0 para imagens idênticas. Para imagens
// diferentes a similaridade vem do hash do par: ~90% dos pares ficam em
// [0.75, 0.99] e o restante em [0.4, 0.7], simulando falhas de match.
func (p *Provider) CompareFaces(ctx context.Context, source, target []byte) (*provider.Comparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(source) < minImageSize || len(target) < minImageSize {
		return nil, domain.ErrInvalidImage
	}

	a, b := sha256.Sum256(source), sha256.Sum256(target)
	pair := sha256.Sum256(append(a[:], b[:]...))

	similarity := 1.0
	if a != b {
		similarity = 0.75 + unit(pair[0])*0.24
		if pair[1] < 26 {
			similarity = 0.4 + unit(pair[2])*0.3
		}
	}

	return &provider.Comparison{
		Similarity: similarity,
		Confidence: 0.8 + unit(pair[3])*0.19,
	}, nil
}

// ValidateImage aceita JPEG, PNG ou WebP decodificáveis
func (p *Provider) ValidateImage(image []byte) error {
	_, err := provider.ValidateImage(image)
	return err
}

func unit(b byte) float64 {
	return float64(b) / 255.0
}

var _ provider.FaceProvider = (*Provider)(nil)
