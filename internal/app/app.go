// Package app wires repositories, services and handlers into a runnable service.
package app

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/gradadmin-api/internal/handler"
	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/repository"
	"github.com/noah-isme/gradadmin-api/internal/service"
	"github.com/noah-isme/gradadmin-api/pkg/config"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
	"github.com/noah-isme/gradadmin-api/pkg/jobs"
	"github.com/noah-isme/gradadmin-api/pkg/storage"
)

// App holds the constructed services.
type App struct {
	cfg    *config.Config
	db     *sqlx.DB
	logger *zap.Logger

	cache   *repository.CacheRepository
	storage *storage.LocalStorage
	queue   *jobs.Queue
	stop    context.CancelFunc

	Metrics   *service.MetricsService
	Admins    *service.AdminService
	Faculty   *service.FacultyService
	Students  *service.StudentService
	Courses   *service.CourseService
	Semesters *service.SemesterService
	Jobs      *service.JobService
	Grades    *service.GradeService
	Forms     *service.FormService
	Notes     *service.NoteService
	Records   *service.StudentRecordService
	Populator *service.Populator
	Imports   *service.ImportService
	Exports   *service.ExportService
}

// New builds every repository and service. rdb may be nil, in which case import job
// state is held in memory.
func New(cfg *config.Config, db *sqlx.DB, rdb *redis.Client, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := storage.NewLocalStorage(cfg.Imports.StorageDir)
	if err != nil {
		return nil, err
	}

	adminRepo := repository.NewAdminRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	jobRepo := repository.NewJobRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	formRepo := repository.NewFormRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	refRepo := repository.NewReferenceRepository(db)
	cache := repository.NewCacheRepository(rdb, logger)

	deps := service.Deps{
		Refs:      refRepo,
		Guard:     service.NewIntegrityGuard(refRepo, logger),
		Validator: validator.New(),
		Logger:    logger,
	}

	a := &App{
		cfg:     cfg,
		db:      db,
		logger:  logger,
		cache:   cache,
		storage: files,
		Metrics: service.NewMetricsService(),
	}
	a.Admins = service.NewAdminService(adminRepo, deps)
	a.Faculty = service.NewFacultyService(facultyRepo, deps)
	a.Students = service.NewStudentService(studentRepo, deps)
	a.Courses = service.NewCourseService(courseRepo, deps)
	a.Semesters = service.NewSemesterService(semesterRepo, deps)
	a.Jobs = service.NewJobService(jobRepo, deps)
	a.Grades = service.NewGradeService(gradeRepo, deps)
	a.Forms = service.NewFormService(formRepo, deps)
	a.Notes = service.NewNoteService(noteRepo, deps)
	a.Records = service.NewStudentRecordService(studentRepo, refRepo, a.Forms, a.Notes, logger)
	a.Populator = service.NewPopulator(service.PopulatorStores{
		Faculty:   facultyRepo,
		Semesters: semesterRepo,
		Courses:   courseRepo,
		Jobs:      jobRepo,
		Grades:    gradeRepo,
	})
	a.Imports = service.NewImportService(service.ImportDeps{
		Targets:   []service.ImportTarget{a.Courses, a.Jobs, a.Faculty, a.Semesters, a.Students},
		Faculty:   facultyRepo,
		Semesters: semesterRepo,
		Courses:   courseRepo,
		Students:  studentRepo,
		Storage:   files,
		Jobs:      repository.NewImportJobRepository(cache, cfg.Imports.JobTTL),
		Metrics:   a.Metrics,
	}, service.ImportConfig{
		SyncRowLimit:     cfg.Imports.SyncRowLimit,
		RowConcurrency:   cfg.Imports.RowConcurrency,
		MaxFileSizeBytes: cfg.Imports.MaxFileSizeBytes,
	}, logger)
	a.Exports = service.NewExportService(service.ExportSources{
		Courses:   courseRepo,
		Students:  studentRepo,
		Faculty:   facultyRepo,
		Semesters: semesterRepo,
	}, logger)
	return a, nil
}

// StartWorkers starts the background import queue and the sweeper that removes stored
// uploads older than the job TTL.
func (a *App) StartWorkers(ctx context.Context) {
	ctx, a.stop = context.WithCancel(ctx)
	a.queue = jobs.NewQueue("imports", a.Imports.HandleJob, jobs.QueueConfig{
		Workers: a.cfg.Imports.Workers,
		Logger:  a.logger,
	})
	a.queue.Start(ctx)
	a.Imports.AttachQueue(a.queue)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := a.storage.CleanupOlderThan(a.cfg.Imports.JobTTL)
				if err != nil {
					a.logger.Warn("import storage cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					a.logger.Info("stale imports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

// Close stops background work and releases the cache connection.
func (a *App) Close() {
	if a.stop != nil {
		a.stop()
	}
	if a.queue != nil {
		a.queue.Stop()
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close cache", zap.Error(err))
	}
}

// Routes assembles the HTTP handlers.
func (a *App) Routes() handler.Routes {
	p := a.Populator
	return handler.Routes{
		Resources: map[string]handler.Registrar{
			"admins":    handler.NewResourceHandler[models.Admin, *models.Admin](a.Admins, handler.ResourceOptions[*models.Admin]{}),
			"faculty":   handler.NewResourceHandler[models.Faculty, *models.Faculty](a.Faculty, handler.ResourceOptions[*models.Faculty]{}),
			"semesters": handler.NewResourceHandler[models.Semester, *models.Semester](a.Semesters, handler.ResourceOptions[*models.Semester]{}),
			"forms":     handler.NewResourceHandler[models.Form, *models.Form](a.Forms, handler.ResourceOptions[*models.Form]{}),
			"notes":     handler.NewResourceHandler[models.Note, *models.Note](a.Notes, handler.ResourceOptions[*models.Note]{}),
			"students": handler.NewResourceHandler[models.Student, *models.Student](a.Students, handler.ResourceOptions[*models.Student]{
				Present: present(p.Student),
			}),
			"courses": handler.NewResourceHandler[models.Course, *models.Course](a.Courses, handler.ResourceOptions[*models.Course]{
				Present: present(p.Course),
			}),
			"grades": handler.NewResourceHandler[models.Grade, *models.Grade](a.Grades, handler.ResourceOptions[*models.Grade]{
				Present: present(p.Grade),
			}),
			"jobs": handler.NewResourceHandler[models.Job, *models.Job](a.Jobs, handler.ResourceOptions[*models.Job]{
				Present:  present(p.Job),
				Where:    courseSemesterFilter,
				Reserved: []string{"courseSemester"},
			}),
		},
		Students: handler.NewStudentHandler(a.Records),
		Imports:  handler.NewImportHandler(a.Imports),
		Exports:  handler.NewExportHandler(a.Exports),
		Metrics:  handler.NewMetricsHandler(a.Metrics, a.db),
	}
}

func present[P any, D any](fn func(context.Context, P) (D, error)) func(context.Context, P) (interface{}, error) {
	return func(ctx context.Context, entity P) (interface{}, error) {
		return fn(ctx, entity)
	}
}

// courseSemesterFilter narrows a job list to jobs whose course runs in the given semester.
func courseSemesterFilter(c *gin.Context) ([]sq.Sqlizer, error) {
	id := c.Query("courseSemester")
	if id == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clonef(appErrors.ErrInvalidFormat, "courseSemester: %q is not a valid semester id", id)
	}
	return []sq.Sqlizer{repository.CourseSemester(id)}, nil
}
