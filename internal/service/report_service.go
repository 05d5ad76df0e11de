package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

type ReportInstanceStore interface {
	ListInstances(ctx context.Context, status *model.InstanceStatus) ([]model.Instance, error)
}

type ReportOrderStore interface {
	ListOrdersForInstance(ctx context.Context, instanceID uuid.UUID) ([]model.Order, error)
}

type ReportCatalogStore interface {
	ListItems(ctx context.Context, breakdownName string) ([]model.Item, error)
}

type UserDirectory interface {
	UsernamesByID(ctx context.Context, userIDs []int64) (map[int64]string, error)
}

type ExcelGenerator interface {
	Generate(report []model.InstancePositions) ([]byte, error)
}

type ReceiptGenerator interface {
	Generate(receipts []model.Receipt) ([]byte, error)
}

// FileResult is a generated report file ready to be served for download.
type FileResult struct {
	FileName string
	Content  []byte
}

// ReportService builds the admin reports: completed rounds, the
// per-round positions workbook, and participant receipts.
type ReportService struct {
	instances ReportInstanceStore
	orders    ReportOrderStore
	catalog   ReportCatalogStore
	users     UserDirectory
	excel     ExcelGenerator
	pdf       ReceiptGenerator
}

func NewReportService(
	instances ReportInstanceStore,
	orders ReportOrderStore,
	catalog ReportCatalogStore,
	users UserDirectory,
	excel ExcelGenerator,
	pdf ReceiptGenerator,
) *ReportService {
	return &ReportService{
		instances: instances,
		orders:    orders,
		catalog:   catalog,
		users:     users,
		excel:     excel,
		pdf:       pdf,
	}
}

// CompletedRounds lists every fully claimed round with its orders and
// the usernames behind them.
func (s *ReportService) CompletedRounds(ctx context.Context) ([]model.CompletedRound, error) {
	complete := model.InstanceStatusComplete
	instances, err := s.instances.ListInstances(ctx, &complete)
	if err != nil {
		return nil, err
	}

	rounds := make([]model.CompletedRound, 0, len(instances))
	for _, inst := range instances {
		orders, err := s.orders.ListOrdersForInstance(ctx, inst.ID)
		if err != nil {
			return nil, err
		}
		names, err := s.usernamesFor(ctx, orders)
		if err != nil {
			return nil, err
		}
		round := model.CompletedRound{
			InstanceID:    inst.ID,
			BreakdownName: inst.BreakdownName,
			Orders:        make([]model.RoundOrder, 0, len(orders)),
		}
		for _, order := range orders {
			round.Orders = append(round.Orders, model.RoundOrder{
				Username: names[order.UserID],
				UserID:   order.UserID,
				Items:    order.Items,
				Total:    order.Total,
			})
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

// Positions reports every round's catalog with each position marked
// free or claimed.
func (s *ReportService) Positions(ctx context.Context) ([]model.InstancePositions, error) {
	instances, err := s.instances.ListInstances(ctx, nil)
	if err != nil {
		return nil, err
	}

	report := make([]model.InstancePositions, 0, len(instances))
	for _, inst := range instances {
		items, err := s.catalog.ListItems(ctx, inst.BreakdownName)
		if err != nil {
			return nil, err
		}
		orders, err := s.orders.ListOrdersForInstance(ctx, inst.ID)
		if err != nil {
			return nil, err
		}
		names, err := s.usernamesFor(ctx, orders)
		if err != nil {
			return nil, err
		}

		claimedBy := make(map[string]string, len(items))
		for _, order := range orders {
			owner := names[order.UserID]
			if owner == "" {
				owner = fmt.Sprintf("user %d", order.UserID)
			}
			for _, line := range order.Items {
				claimedBy[line.Name] = owner
			}
		}

		positions := make([]model.PositionStatus, 0, len(items))
		for _, item := range items {
			owner, claimed := claimedBy[item.Name]
			positions = append(positions, model.PositionStatus{
				ItemName:  item.Name,
				Price:     item.Price,
				Claimed:   claimed,
				ClaimedBy: owner,
			})
		}
		report = append(report, model.InstancePositions{
			InstanceID:    inst.ID,
			BreakdownName: inst.BreakdownName,
			Status:        inst.Status,
			Positions:     positions,
		})
	}
	return report, nil
}

// PositionsWorkbook renders the positions report as an xlsx download.
func (s *ReportService) PositionsWorkbook(ctx context.Context) (*FileResult, error) {
	report, err := s.Positions(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: fmt.Sprintf("positions_%s.xlsx", time.Now().Format("2006-01-02")),
		Content:  content,
	}, nil
}

// Receipts aggregates each participant's orders across completed
// rounds into one receipt per participant.
func (s *ReportService) Receipts(ctx context.Context) ([]model.Receipt, error) {
	rounds, err := s.CompletedRounds(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int64]*model.Receipt)
	for _, round := range rounds {
		for _, order := range round.Orders {
			receipt, ok := byUser[order.UserID]
			if !ok {
				receipt = &model.Receipt{UserID: order.UserID, Username: order.Username}
				byUser[order.UserID] = receipt
			}
			receipt.Orders = append(receipt.Orders, model.ReceiptOrder{
				BreakdownName: round.BreakdownName,
				InstanceID:    round.InstanceID,
				Items:         order.Items,
				Total:         order.Total,
			})
			receipt.Total += order.Total
		}
	}

	receipts := make([]model.Receipt, 0, len(byUser))
	for _, receipt := range byUser {
		receipts = append(receipts, *receipt)
	}
	sort.Slice(receipts, func(i, j int) bool {
		if receipts[i].Username != receipts[j].Username {
			return receipts[i].Username < receipts[j].Username
		}
		return receipts[i].UserID < receipts[j].UserID
	})
	return receipts, nil
}

// ReceiptsDocument renders participant receipts as a pdf download.
func (s *ReportService) ReceiptsDocument(ctx context.Context) (*FileResult, error) {
	receipts, err := s.Receipts(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(receipts)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: fmt.Sprintf("receipts_%s.pdf", time.Now().Format("2006-01-02")),
		Content:  content,
	}, nil
}

func (s *ReportService) usernamesFor(ctx context.Context, orders []model.Order) (map[int64]string, error) {
	seen := make(map[int64]struct{}, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.UserID]; ok {
			continue
		}
		seen[order.UserID] = struct{}{}
		ids = append(ids, order.UserID)
	}
	return s.users.UsernamesByID(ctx, ids)
}
