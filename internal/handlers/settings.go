package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"single_sensor/internal/system"
)

const (
	formActionField  = "action"
	formActionReboot = "reboot"

	msgSettingsUpdated = "Settings updated!"
	statusRebooting    = "rebooting"
	statusSaved        = "saved"
)

func (h *Handler) settingsForm(c *gin.Context) {
	fields, err := h.services.Settings.Fields()
	if err != nil {
		h.log.Errorw("settings_form_load_failed", "err", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.HTML(http.StatusOK, "settings.html", gin.H{"Fields": fields})
}

// submitSettingsForm writes every posted field except the action verbatim.
// action=reboot restarts the device after the save.
func (h *Handler) submitSettingsForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	values := make(map[string]string, len(c.Request.PostForm))
	for k, vs := range c.Request.PostForm {
		if k == formActionField || len(vs) == 0 {
			continue
		}
		values[k] = vs[0]
	}

	ctx := c.Request.Context()
	if err := h.services.Settings.Save(ctx, values); err != nil {
		h.log.Errorw("settings_form_save_failed", "err", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	if c.PostForm(formActionField) == formActionReboot {
		if err := h.services.Settings.Reboot(ctx); err != nil {
			h.log.Errorw("settings_form_reboot_failed", "err", err)
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
	}

	c.String(http.StatusOK, msgSettingsUpdated)
}

// @Summary      Get settings
// @Description  Raw key/values of the [General] section of the settings file
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	raw, err := h.services.Settings.Raw()
	if err != nil {
		h.log.Errorw("settings_load_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, raw)
}

// @Summary      Update settings
// @Description  Values are written verbatim and take effect after a restart
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "Key/values to write"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings [put]
// @Security     BearerAuth
func (h *Handler) putSettings(c *gin.Context) {
	var values map[string]string
	if ok := h.bindJSONOrBadRequest(c, &values); !ok {
		return
	}
	if len(values) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings provided"})
		return
	}

	if err := h.services.Settings.Save(c.Request.Context(), values); err != nil {
		h.log.Errorw("settings_save_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSaved})
}

// @Summary      Reboot device
// @Tags         system
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string  "reboot disabled"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/system/reboot [post]
// @Security     BearerAuth
func (h *Handler) reboot(c *gin.Context) {
	if err := h.services.Settings.Reboot(c.Request.Context()); err != nil {
		if errors.Is(err, system.ErrRebootDisabled) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorw("reboot_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reboot"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusRebooting})
}
