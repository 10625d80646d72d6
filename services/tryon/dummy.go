package tryonsvc

import (
	"context"
	"io"

	"github.com/GraduateProjectPTIT/lms-backend/core"
)

// dummyService serves canned try-on answers for tests and local development.
type dummyService struct{}

var _ core.TryOnService = (*dummyService)(nil)

func NewDummyService() core.TryOnService {
	return &dummyService{}
}

func (dummyService) ConsultStyles(ctx context.Context, userRequest string) ([]core.StyleOption, error) {
	return []core.StyleOption{
		{ID: "natural-glow", Name: "Natural Glow", Description: "light coverage, soft tones"},
		{ID: "evening-smoky", Name: "Evening Smoky", Description: "dark eyeshadow, bold lips"},
	}, nil
}

func (dummyService) GenerateMakeup(ctx context.Context, face io.Reader, filename string, overrides core.StyleOverrides) (core.MakeupResult, error) {
	_, _ = io.Copy(io.Discard, face)
	return core.MakeupResult{
		ResultURL: "https://cdn.example.com/results/" + filename,
		Tutorials: []string{"https://youtube.com/watch?v=tutorial1"},
		Courses:   []string{},
	}, nil
}
