package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"dropoutlens/internal/config"
	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/pipeline"
	"dropoutlens/internal/shared/testutil"
)

type AnalysisServiceTestSuite struct {
	suite.Suite
	svc  *AnalysisService
	path string
	logs *testutil.BufferedSlogHandler
	ctx  context.Context
}

func (s *AnalysisServiceTestSuite) SetupTest() {
	s.path = testutil.WriteWorkbook(s.T(), testutil.SampleRows())
	s.ctx = context.Background()

	cfg := config.Default()
	cfg.Dataset.Path = s.path

	logger, handler := testutil.NewTestLogger(s.T())
	s.logs = handler

	p := pipeline.New(pipeline.ConfigFrom(cfg), nil, nil, logger)
	s.svc = NewAnalysisService(p, cfg.Clustering.DefaultK, logger)
}

func TestAnalysisServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalysisServiceTestSuite))
}

func (s *AnalysisServiceTestSuite) TestLazyLoad() {
	s.False(s.svc.Loaded())
	s.Equal(3, s.svc.DefaultK())

	prep, err := s.svc.Dataset(s.ctx)
	s.Require().NoError(err)
	s.True(s.svc.Loaded())
	s.Len(prep.Records, 5)
	s.True(s.logs.ContainsMessage("dataset ready"))

	again, err := s.svc.Dataset(s.ctx)
	s.Require().NoError(err)
	s.Same(prep, again)
}

func (s *AnalysisServiceTestSuite) TestConcurrentFirstLoad() {
	const callers = 8
	versions := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prep, err := s.svc.Dataset(s.ctx)
			errs[i] = err
			if err == nil {
				versions[i] = prep.Version
			}
		}(i)
	}
	wg.Wait()

	for i := range versions {
		s.NoError(errs[i])
		s.Equal(versions[0], versions[i])
	}
}

func (s *AnalysisServiceTestSuite) TestReload() {
	first, err := s.svc.Dataset(s.ctx)
	s.Require().NoError(err)

	second, err := s.svc.Reload(s.ctx)
	s.Require().NoError(err)
	s.NotEqual(first.Version, second.Version)

	s.Require().NoError(os.Remove(s.path))
	_, err = s.svc.Reload(s.ctx)
	s.True(errors.Is(err, apierrors.ErrDataSource))

	current, err := s.svc.Dataset(s.ctx)
	s.Require().NoError(err)
	s.Equal(second.Version, current.Version)
}

func (s *AnalysisServiceTestSuite) TestViews() {
	view, err := s.svc.DatasetView(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(5, view.Total)
	s.Len(view.Records, 3)

	curve, err := s.svc.Elbow(s.ctx)
	s.Require().NoError(err)
	s.Len(curve, 5)

	clusters, err := s.svc.Clusters(s.ctx, 3)
	s.Require().NoError(err)
	s.Len(clusters.Totals, 3)

	eval, err := s.svc.Evaluation(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(2, eval.K)

	_, err = s.svc.Clusters(s.ctx, 11)
	s.True(errors.Is(err, apierrors.ErrInvalidClusterCount))
}

func (s *AnalysisServiceTestSuite) TestMissingWorkbook() {
	s.Require().NoError(os.Remove(s.path))

	_, err := s.svc.Clusters(s.ctx, 3)
	s.True(errors.Is(err, apierrors.ErrDataSource))
	s.False(s.svc.Loaded())
}

func (s *AnalysisServiceTestSuite) TestHealthService() {
	health := NewHealthService(s.svc, nil)

	status := health.HealthCheck(s.ctx)
	s.Equal("ok", status.Status)
	s.Equal(ServiceHealth{Status: "pending", Message: "dataset loads on first request"}, status.Services["dataset"])

	_, err := s.svc.Dataset(s.ctx)
	s.Require().NoError(err)

	status = health.HealthCheck(s.ctx)
	s.Equal(ServiceHealth{Status: "ready"}, status.Services["dataset"])
	s.NotEmpty(health.Version().Version)
}
