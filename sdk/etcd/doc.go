// Package etcd proporciona un cliente etcd con namespace por aplicación y
// entorno, usado como capa de configuración sobre el entorno del proceso.
//
// Estructura de claves: `/APP/ENV/VAR_KEY`, por ejemplo
// `/openapi-proxy/production/ctrader/host`.
//
// Los endpoints se leen de ETCD_ENDPOINTS (separados por comas).
// Para pruebas, NewWithKV acepta cualquier implementación
// de KV.
//
// Ejemplo:
//
//	client, err := etcd.New(
//		etcd.WithApp("openapi-proxy"),
//		etcd.WithEnv("development"),
//	)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if host, ok := client.Lookup(ctx, "ctrader/host"); ok {
//		cfg.HostEnv = host
//	}
package etcd
