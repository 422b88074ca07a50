package controller

import (
	"context"
	"fmt"
	"maps"

	"github.com/go-logr/logr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	"k8s.io/client-go/util/retry"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
)

const (
	finalizerName            = "dns.yk/cleanup"
	managedRecordsAnnotation = "dns.yk/managed-records"
)

// HTTPRouteReconciler keeps provider record sets in line with HTTPRoute hostnames.
type HTTPRouteReconciler struct {
	client.Client
	APIReader client.Reader
	Log       logr.Logger
	DomainMap *config.DomainMap
	DNS       dns.Provider
	Upsert    bool // when true, replace existing record sets; when false, only create missing ones
}

func (r *HTTPRouteReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := r.Log.WithValues("httproute", req.NamespacedName)

	var route gatewayv1.HTTPRoute
	if err := r.APIReader.Get(ctx, req.NamespacedName, &route); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	managed := decodeManaged(route.Annotations)
	desired, skipped := desiredRecords(routeHostnames(&route), r.DomainMap)
	for _, host := range skipped {
		log.V(1).Info("no domain mapping found for hostname", "hostname", host)
	}

	// Handle deletion
	if !route.DeletionTimestamp.IsZero() {
		if controllerutil.ContainsFinalizer(&route, finalizerName) {
			log.Info("deleting DNS records for HTTPRoute")
			toDelete := maps.Clone(managed)
			for host, rec := range desired {
				if _, ok := toDelete[host]; !ok {
					toDelete[host] = rec.Key.Type
				}
			}
			for _, host := range sortedHosts(toDelete) {
				if err := r.deleteRecord(ctx, host, toDelete[host]); err != nil {
					return ctrl.Result{}, err
				}
				log.Info("deleted DNS record", "hostname", host)
			}

			err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
				if err := r.APIReader.Get(ctx, req.NamespacedName, &route); err != nil {
					return err
				}
				controllerutil.RemoveFinalizer(&route, finalizerName)
				return r.Update(ctx, &route)
			})
			if err != nil {
				return ctrl.Result{}, fmt.Errorf("failed to remove finalizer: %w", err)
			}
		}
		return ctrl.Result{}, nil
	}

	if !controllerutil.ContainsFinalizer(&route, finalizerName) {
		err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
			if err := r.APIReader.Get(ctx, req.NamespacedName, &route); err != nil {
				return err
			}
			controllerutil.AddFinalizer(&route, finalizerName)
			return r.Update(ctx, &route)
		})
		if err != nil {
			return ctrl.Result{}, fmt.Errorf("failed to add finalizer: %w", err)
		}
		return ctrl.Result{}, nil
	}

	// Delete records for hostnames that left the route or changed type
	for _, host := range sortedHosts(managed) {
		rec, ok := desired[host]
		if ok && rec.Key.Type == managed[host] {
			continue
		}
		log.Info("hostname no longer maps to a managed record, deleting", "hostname", host, "type", managed[host])
		if err := r.deleteRecord(ctx, host, managed[host]); err != nil {
			return ctrl.Result{}, err
		}
	}

	current := managedRecords{}
	for _, host := range sortedHosts(typesOf(desired)) {
		rec := desired[host]
		current[host] = rec.Key.Type

		if !r.Upsert {
			exists, err := r.DNS.Exists(ctx, rec.Key)
			if err != nil {
				return ctrl.Result{}, fmt.Errorf("checking DNS record for %s: %w", host, err)
			}
			if exists {
				log.V(1).Info("DNS record already exists, skipping", "hostname", host)
				continue
			}
		}

		res := r.DNS.Reconcile(ctx, rec)
		if !res.Applied() {
			return ctrl.Result{}, fmt.Errorf("reconciling DNS record for %s: %w", host, res.Err())
		}
		log.Info("reconciled DNS record", "hostname", host, "type", rec.Key.Type, "value", rec.Value)
	}

	if !maps.Equal(managed, current) {
		err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
			if err := r.APIReader.Get(ctx, req.NamespacedName, &route); err != nil {
				return err
			}
			if route.Annotations == nil {
				route.Annotations = make(map[string]string)
			}
			route.Annotations[managedRecordsAnnotation] = current.encode()
			return r.Update(ctx, &route)
		})
		if err != nil {
			return ctrl.Result{}, fmt.Errorf("failed to update managed-records annotation: %w", err)
		}
	}

	return ctrl.Result{}, nil
}

func (r *HTTPRouteReconciler) deleteRecord(ctx context.Context, host, recordType string) error {
	key, err := dns.KeyForHostname(host, recordType)
	if err != nil {
		return fmt.Errorf("deleting DNS record for %s: %w", host, err)
	}
	if err := r.DNS.Delete(ctx, key); err != nil {
		return fmt.Errorf("deleting DNS record for %s: %w", host, err)
	}
	return nil
}

func typesOf(desired map[string]dns.DesiredRecord) map[string]string {
	out := make(map[string]string, len(desired))
	for host, rec := range desired {
		out[host] = rec.Key.Type
	}
	return out
}

func (r *HTTPRouteReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&gatewayv1.HTTPRoute{}).
		WithEventFilter(predicate.Funcs{
			UpdateFunc: func(e event.UpdateEvent) bool {
				// Reconcile if the Spec (Generation) has changed.
				if e.ObjectOld.GetGeneration() != e.ObjectNew.GetGeneration() {
					return true
				}
				// Also reconcile if finalizers have changed (e.g. our finalizer was added).
				if len(e.ObjectOld.GetFinalizers()) != len(e.ObjectNew.GetFinalizers()) {
					return true
				}
				// Ignore status-only updates.
				return false
			},
		}).
		Complete(r)
}
