package objects

import (
	"github.com/coreman2200/nightdrive/internal/keyframe"
)

// NewCar builds the lead car from modelPath.
func NewCar(modelPath string) Factory {
	return func(env Env) Object { return NewVehicle(env, keyframe.Car, modelPath, carGreen) }
}

// NewPolice builds the chasing police car from modelPath.
func NewPolice(modelPath string) Factory {
	return func(env Env) Object { return NewVehicle(env, keyframe.Police, modelPath, copBlue) }
}

// Defaults lists the landing page objects in scene order. models maps each
// vehicle target to its model path; missing entries keep the placeholder.
func Defaults(models map[keyframe.Target]string) []Factory {
	return []Factory{
		NewRoad,
		NewTunnel,
		NewMountains,
		NewNightSky,
		NewCar(models[keyframe.Car]),
		NewPolice(models[keyframe.Police]),
	}
}
