package service

import (
	"context"
	"strings"

	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
)

type QnaPage struct {
	Page  int
	Size  int
	Total int64
	Items []model.Qna
}

type QnaService interface {
	Create(ctx context.Context, userID uint64, title, question string) (*model.Qna, error)
	ListMine(ctx context.Context, userID uint64) ([]model.Qna, error)
	Get(ctx context.Context, id uint64, viewer Viewer) (*model.Qna, error)
	Delete(ctx context.Context, id uint64, viewer Viewer) error

	AdminList(ctx context.Context, status string, page, size int) (*QnaPage, error)
	Answer(ctx context.Context, qnaID, adminID uint64, body string) (*model.QnaComment, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (*model.Qna, error)
}

type qnaService struct {
	repo repository.QnaRepository
}

func NewQnaService(repo repository.QnaRepository) QnaService {
	return &qnaService{repo: repo}
}

func (s *qnaService) Create(ctx context.Context, userID uint64, title, question string) (*model.Qna, error) {
	title, question = strings.TrimSpace(title), strings.TrimSpace(question)
	if title == "" || question == "" {
		return nil, badRequest("제목과 내용을 입력해 주세요.")
	}
	q := &model.Qna{UserID: userID, Title: title, Question: question, Status: model.QnaOpen}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *qnaService) ListMine(ctx context.Context, userID uint64) ([]model.Qna, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *qnaService) Get(ctx context.Context, id uint64, viewer Viewer) (*model.Qna, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "해당 문의를 찾을 수 없습니다.")
	}
	if q.UserID != viewer.ID && !viewer.Admin {
		return nil, forbidden("열람 권한이 없습니다.")
	}
	return q, nil
}

func (s *qnaService) Delete(ctx context.Context, id uint64, viewer Viewer) error {
	const gone = "이미 삭제되었거나 존재하지 않습니다."
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundAs(err, gone)
	}
	if q.UserID != viewer.ID && !viewer.Admin {
		return forbidden("삭제 권한이 없습니다.")
	}
	return notFoundAs(s.repo.Delete(ctx, id), gone)
}

func (s *qnaService) AdminList(ctx context.Context, status string, page, size int) (*QnaPage, error) {
	p := repository.NewPage(page, size, 20, 100)
	rows, total, err := s.repo.List(ctx, strings.ToUpper(strings.TrimSpace(status)), p)
	if err != nil {
		return nil, err
	}
	return &QnaPage{Page: p.Page, Size: p.Size, Total: total, Items: rows}, nil
}

func (s *qnaService) Answer(ctx context.Context, qnaID, adminID uint64, body string) (*model.QnaComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, badRequest("답변 내용을 입력하세요.")
	}
	c := &model.QnaComment{AdminID: adminID, Body: body}
	if err := s.repo.Answer(ctx, qnaID, c); err != nil {
		return nil, notFoundAs(err, "문의가 존재하지 않습니다.")
	}
	return c, nil
}

func (s *qnaService) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Qna, error) {
	st := model.QnaStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, badRequest("유효하지 않은 상태값입니다.")
	}
	q, err := s.repo.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, notFoundAs(err, "문의가 존재하지 않습니다.")
	}
	return q, nil
}
