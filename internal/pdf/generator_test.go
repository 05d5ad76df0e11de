package pdf

import (
	"bytes"
	"testing"

	"github.com/google/uuid"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

func TestGenerate(t *testing.T) {
	receipts := []model.Receipt{
		{
			UserID:   101,
			Username: "alice",
			Orders: []model.ReceiptOrder{
				{
					BreakdownName: "Spring Box",
					InstanceID:    uuid.New(),
					Items: []model.OrderItem{
						{Name: "Lens", Price: 120},
						{Name: "Cap", Price: 30},
					},
					Total: 150,
				},
			},
			Total: 150,
		},
		{UserID: 202, Orders: nil, Total: 0},
	}

	content, err := NewGenerator().Generate(receipts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Fatalf("output does not look like a pdf: %q", content[:8])
	}
}

func TestGenerate_Empty(t *testing.T) {
	content, err := NewGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Fatal("empty receipt set should still render a document")
	}
}
