// Package logger expone el logger zap del servicio de coches.
//
// Hay una única instancia global (Init/L) y un logger "scoped" por request que el middleware de
// logging guarda en el contexto con request_id, method y path. Controllers, services y adapters lo
// recuperan con From(ctx) y le agregan layer/op:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Create"))
//	log.Info("car created", logger.CarID(car.ID))
//
// Env "dev" escribe en consola con colores, "prod" escribe JSON.
package logger
