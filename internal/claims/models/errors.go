package models

import (
	dErrors "escena/pkg/domain-errors"
)

// Workflow errors. Messages are shown to end users verbatim.
var (
	ErrEntityNotFound              = dErrors.New(dErrors.CodeNotFound, "el perfil no existe")
	ErrUserNotFound                = dErrors.New(dErrors.CodeNotFound, "el usuario no existe")
	ErrClaimNotFound               = dErrors.New(dErrors.CodeNotFound, "la solicitud no existe")
	ErrAlreadyOwned                = dErrors.New(dErrors.CodeConflict, "este perfil ya tiene un dueño")
	ErrDuplicatePendingClaim       = dErrors.New(dErrors.CodeConflict, "ya existe una solicitud pendiente para este perfil")
	ErrDuplicateProfile            = dErrors.New(dErrors.CodeConflict, "ya tienes un perfil de este tipo")
	ErrAlreadyProcessed            = dErrors.New(dErrors.CodeConflict, "esta solicitud ya fue procesada")
	ErrRegistrationAlreadyApproved = dErrors.New(dErrors.CodeConflict, "no se puede rechazar un perfil ya aprobado")
)
