package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/controller"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(gatewayv1.Install(scheme))
}

type controllerOptions struct {
	domainMapPath string
	metricsAddr   string
	probeAddr     string
}

func newControllerCmd() *cobra.Command {
	o := &controllerOptions{}
	cmd := &cobra.Command{
		Use:   "controller",
		Short: "Keep DNS records in sync with Gateway API HTTPRoute hostnames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run()
		},
	}
	cmd.Flags().StringVar(&o.domainMapPath, "domain-map", "", "domain map file (default $DOMAIN_MAP_PATH or configs/domain-map.yaml)")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-bind-address", ":9090", "metrics endpoint address")
	cmd.Flags().StringVar(&o.probeAddr, "health-probe-bind-address", ":8081", "health probe address")
	return cmd
}

func (o *controllerOptions) run() error {
	log := ctrl.Log.WithName("setup")

	log.Info("starting yk-dns-upsert controller", "version", Version)

	domainMapPath := o.domainMapPath
	if domainMapPath == "" {
		domainMapPath = os.Getenv("DOMAIN_MAP_PATH")
	}
	if domainMapPath == "" {
		domainMapPath = "configs/domain-map.yaml"
	}
	domainMap, err := config.LoadDomainMap(domainMapPath)
	if err != nil {
		return fmt.Errorf("unable to load domain map: %w", err)
	}
	log.Info("loaded domain map", "path", domainMapPath, "domains", len(domainMap.Domains()))

	dnsProvider, providerCfg, err := registeredProvider(ctrl.Log)
	if err != nil {
		return err
	}
	log.Info("loaded provider config", "provider", providerCfg.Provider, "upsert", providerCfg.Upsert)

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: o.metricsAddr},
		HealthProbeBindAddress: o.probeAddr,
	})
	if err != nil {
		return fmt.Errorf("unable to create manager: %w", err)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	reconciler := &controller.HTTPRouteReconciler{
		Client:    mgr.GetClient(),
		APIReader: mgr.GetAPIReader(),
		Log:       ctrl.Log.WithName("httproute-controller"),
		DomainMap: domainMap,
		DNS:       dnsProvider,
		Upsert:    providerCfg.Upsert,
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		return fmt.Errorf("unable to set up HTTPRoute controller: %w", err)
	}

	log.Info("starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		return fmt.Errorf("manager exited with error: %w", err)
	}

	return nil
}
