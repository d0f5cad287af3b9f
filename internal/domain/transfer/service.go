package transfer

import (
	"context"
	"io"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/history"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
)

type Catalog interface {
	List(ctx context.Context) ([]medications.Medication, error)
	AddBatch(ctx context.Context, ins []medications.Input) ([]medications.Medication, []medications.BatchError, error)
}

type DoseSource interface {
	All(ctx context.Context) ([]doses.DoseEvent, error)
}

type ChangeSource interface {
	Changes(ctx context.Context) ([]history.Change, error)
}

// ImportReport: Skipped cuenta filas mal formadas y rechazadas por validación.
type ImportReport struct {
	Imported    []medications.Medication
	Skipped     int
	RowErrors   []RowError
	TotalParsed int
}

// Service arma exportaciones de solo lectura e importa catálogos desde planillas.
type Service struct {
	catalog Catalog
	doses   DoseSource
	changes ChangeSource
	loc     *time.Location
	profile string
	log     logger.Logger
}

func NewService(catalog Catalog, ds DoseSource, cs ChangeSource, loc *time.Location, profile string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		catalog: catalog,
		doses:   ds,
		changes: cs,
		loc:     loc,
		profile: profile,
		log:     log.With(logger.Fields{"component": "transfer"}),
	}
}

// Profile se usa para nombrar los archivos descargados.
func (s *Service) Profile() string {
	return s.profile
}

func (s *Service) ExportDosesCSV(ctx context.Context, w io.Writer) error {
	evs, err := s.doses.All(ctx)
	if err != nil {
		return err
	}
	return WriteDosesCSV(w, evs)
}

func (s *Service) ExportHistoryCSV(ctx context.Context, w io.Writer) error {
	changes, err := s.changes.Changes(ctx)
	if err != nil {
		return err
	}
	return WriteHistoryCSV(w, changes)
}

func (s *Service) ExportMedicationsCSV(ctx context.Context, w io.Writer) error {
	meds, err := s.catalog.List(ctx)
	if err != nil {
		return err
	}
	return WriteMedicationsCSV(w, meds)
}

// Import parsea r y agrega las filas válidas al catálogo en una sola escritura.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	rows, malformed, err := ParseMedicationsCSV(r, s.loc)
	if err != nil {
		return ImportReport{}, err
	}

	rep := ImportReport{RowErrors: malformed, TotalParsed: len(rows) + len(malformed)}
	if len(rows) > 0 {
		ins := make([]medications.Input, 0, len(rows))
		for _, row := range rows {
			ins = append(ins, row.Input)
		}

		added, rejected, err := s.catalog.AddBatch(ctx, ins)
		if err != nil {
			return ImportReport{}, err
		}
		rep.Imported = added
		for _, be := range rejected {
			rep.RowErrors = append(rep.RowErrors, RowError{Line: rows[be.Index].Line, Name: be.Name, Reason: be.Err.Error()})
		}
	}
	rep.Skipped = len(rep.RowErrors)

	s.log.Info("medications imported", logger.Fields{"imported": len(rep.Imported), "skipped": rep.Skipped})
	return rep, nil
}
