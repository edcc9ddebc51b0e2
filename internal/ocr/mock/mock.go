package mock

import (
	"context"
	"crypto/sha256"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/veriface/internal/ocr"
)

// Samples são os textos devolvidos pelo engine, um por tipo de documento
var Samples = []string{
	"DRIVER LICENSE\nJOHN SMITH\nDOB: 01/15/1990\nDL: A1234567\nEXP: 01/15/2028\nSEX: M\nCLASS: C",
	"PASSPORT\nSURNAME: JOHNSON\nGIVEN NAMES: SARAH MARIE\nDATE OF BIRTH: 25 JUN 1985\nPASSPORT NO: 123456789\nNATIONALITY: BRITISH CITIZEN\nSEX: F",
	"IDENTITY CARD\nNAME: MICHAEL BROWN\nDOB: 03/22/1988\nID: 987654321\nEXPIRES: 03/22/2030\nADDRESS: 123 MAIN ST\nCITY: ANYTOWN",
	"NATIONAL ID\nFULL NAME: EMMA WILSON\nBIRTH: 12/08/1992\nNUMBER: ID123456789\nEXPIRY: 12/08/2032\nGENDER: F\nNATIONALITY: AMERICAN",
}

// Engine implementa ocr.Engine para testes e desenvolvimento.
// O mesmo conteúdo de imagem sempre produz o mesmo resultado.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string {
	return "mock"
}

// Recognize escolhe um dos Samples a partir do hash da imagem. Qualquer
// entrada é aceita, inclusive vazia: o engine serve de fallback offline.
func (e *Engine) Recognize(ctx context.Context, image []byte) (*ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := sha256.Sum256(image)
	text := Samples[int(hash[0])%len(Samples)]
	lines := strings.Split(text, "\n")

	blocks := make([]ocr.TextBlock, 0, len(lines))
	for i, line := range lines {
		h := hash[(i+1)%len(hash)]
		blocks = append(blocks, ocr.TextBlock{
			Text:       line,
			Confidence: 0.8 + scale(h, 0.19),
			BoundingBox: ocr.BoundingBox{
				Left:   0.1 + scale(h, 0.1),
				Top:    0.1 + float64(i)*0.1,
				Width:  0.8 + scale(hash[(i+2)%len(hash)], 0.1),
				Height: 0.08,
			},
		})
	}

	return &ocr.Result{
		FullText:       text,
		Blocks:         blocks,
		Confidence:     0.85 + scale(hash[31], 0.14),
		ProcessingTime: 1200*time.Millisecond + time.Duration(hash[30])*time.Millisecond,
	}, nil
}

func (e *Engine) Close() error {
	return nil
}

// scale maps a hash byte onto [0, span]
func scale(b byte, span float64) float64 {
	return float64(b) / 255.0 * span
}

var _ ocr.Engine = (*Engine)(nil)
