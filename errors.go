package orbcomm

import "github.com/horockey/orbcomm/internal/model"

type UnknownTokenError = model.UnknownTokenError
