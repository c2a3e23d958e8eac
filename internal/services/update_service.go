package services

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-sysup/internal/extents"
	"github.com/deploymenttheory/go-sysup/internal/interfaces"
	"github.com/deploymenttheory/go-sysup/internal/logging"
	"github.com/deploymenttheory/go-sysup/internal/parsers/fiemap"
	"github.com/deploymenttheory/go-sysup/internal/sysup"
	"github.com/deploymenttheory/go-sysup/internal/types"
)

// State is a step of the update sequence
type State int

const (
	StateIdle State = iota
	StateOpening
	StateValidating
	StateQuerying
	StatePersisting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateValidating:
		return "validating"
	case StateQuerying:
		return "querying"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UpdateService maps the boot image's extents and stores them in the
// parameter store. Each Store call runs the whole sequence synchronously
// and keeps nothing between calls.
type UpdateService struct {
	opener interfaces.TargetOpener
	params interfaces.ParamWriter
	logger logrus.FieldLogger
	path   string
	endian binary.ByteOrder
}

// NewUpdateService creates an update service over the fixed target path.
// A nil logger uses the standard logrus logger.
func NewUpdateService(opener interfaces.TargetOpener, params interfaces.ParamWriter, logger logrus.FieldLogger) *UpdateService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UpdateService{
		opener: opener,
		params: params,
		logger: logger,
		path:   types.TargetPath,
		endian: binary.LittleEndian,
	}
}

// Path returns the file whose extents are mapped
func (s *UpdateService) Path() string {
	return s.path
}

// Store handles one trigger write. On success it returns len(payload); on
// failure it returns 0 and a *sysup.Error whose Code is the negative status
// for the caller.
func (s *UpdateService) Store(payload []byte) (int, error) {
	log := s.logger.WithFields(logrus.Fields{
		logging.FieldEvent:   logging.EventTrigger,
		logging.FieldRequest: uuid.New().String(),
	})

	if err := ParseTrigger(payload); err != nil {
		log.WithField(logging.FieldState, StateIdle).Debug("trigger rejected")
		return 0, err
	}

	mapped, err := s.update(log)
	if err != nil {
		log.WithFields(logrus.Fields{
			logging.FieldState: StateFailed,
			logging.FieldKind:  sysup.KindOf(err).String(),
			logging.FieldCode:  sysup.Code(err),
		}).WithError(err).Error("extent map update failed")
		return 0, err
	}

	log.WithFields(logrus.Fields{
		logging.FieldState:  StateDone,
		logging.FieldMapped: mapped,
	}).Info("extent map updated")

	return len(payload), nil
}

// update runs Opening through Persisting and returns the number of extents
// stored.
func (s *UpdateService) update(log logrus.FieldLogger) (uint32, error) {
	log = log.WithField(logging.FieldPath, s.path)

	log.WithField(logging.FieldState, StateOpening).Debug("opening target")
	file, err := s.opener.OpenReadOnly(s.path)
	if err != nil {
		return 0, sysup.NewError(sysup.KindNotFound, "open", err)
	}
	defer file.Close()

	log.WithField(logging.FieldState, StateValidating).Debug("checking extent map capability")
	object := file.Backing()
	if _, err := extents.Mapper(object); err != nil {
		return 0, err
	}

	req := types.NewExtentMapRequest()
	length, err := extents.CheckRanges(object.StorageLimit(), req.Start, req.Length)
	if err != nil {
		return 0, err
	}

	log.WithFields(logrus.Fields{
		logging.FieldState:  StateQuerying,
		logging.FieldLimit:  object.StorageLimit(),
		logging.FieldLength: length,
	}).Debug("querying extents")
	result, err := extents.Query(object, req.Start, length, req.ExtentCapacity)
	if err != nil {
		return 0, err
	}

	log.WithFields(logrus.Fields{
		logging.FieldState:  StatePersisting,
		logging.FieldMapped: result.MappedCount,
	}).Debug("persisting extent map")
	if err := s.persist(req, result); err != nil {
		return 0, err
	}

	return result.MappedCount, nil
}

// persist writes the result payload and then the update sentinel. The two
// writes are independent; a failure of the second leaves the first in place.
func (s *UpdateService) persist(req types.ExtentMapRequest, result *types.ExtentMapResult) error {
	payload, err := fiemap.EncodeResult(req, result, s.endian)
	if err != nil {
		return sysup.NewError(sysup.KindPersistenceFailure, "encode result", err)
	}

	if err := s.params.Set(types.ParamIndexFiemapResult, payload); err != nil {
		return sysup.NewError(sysup.KindPersistenceFailure, "persist result", err)
	}

	flag := fiemap.EncodeUpdateFlag(types.UpdateSentinel, s.endian)
	if err := s.params.Set(types.ParamIndexFiemapUpdate, flag); err != nil {
		return sysup.NewError(sysup.KindPersistenceFailure, "persist update flag", err)
	}

	return nil
}
